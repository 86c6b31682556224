package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

const ledgerTable = "seen_content"

// Ledger persists fingerprints of items that already reached a digest.
type Ledger struct {
	db  *DB
	now func() time.Time
}

var _ ports.Ledger = (*Ledger)(nil)

// NewLedger wires the ledger to an opened database.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// WithClock overrides the time source used for seen_at and sweeps.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// IsDuplicate reports whether the item's fingerprint was recorded before.
func (l *Ledger) IsDuplicate(ctx context.Context, item domain.Item) (bool, error) {
	query, args, err := l.db.builder.
		Select("1").
		From(ledgerTable).
		Where(sq.Eq{"fingerprint": item.Fingerprint()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build lookup: %w", err)
	}

	var one int
	err = l.db.conn.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return true, nil
}

// Record stores the item; recording an already known fingerprint keeps the
// original entry.
func (l *Ledger) Record(ctx context.Context, item domain.Item) error {
	query, args, err := l.db.builder.
		Insert(ledgerTable).
		Columns("fingerprint", "url", "title", "category", "seen_at").
		Values(item.Fingerprint(), item.URL, item.Title, string(item.Category), l.now().UnixMilli()).
		Suffix("ON CONFLICT (fingerprint) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := l.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record item: %w", err)
	}
	return nil
}

// Sweep deletes entries seen strictly before now-retention.
func (l *Ledger) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	return sweep(ctx, l.db, ledgerTable, "seen_at", l.now().Add(-retention))
}

// Entry loads a ledger row by fingerprint.
func (l *Ledger) Entry(ctx context.Context, fingerprint string) (domain.LedgerEntry, bool, error) {
	query, args, err := l.db.builder.
		Select("fingerprint", "url", "title", "category", "seen_at").
		From(ledgerTable).
		Where(sq.Eq{"fingerprint": fingerprint}).
		ToSql()
	if err != nil {
		return domain.LedgerEntry{}, false, fmt.Errorf("build entry query: %w", err)
	}

	var (
		entry    domain.LedgerEntry
		category string
		seenAt   int64
	)
	err = l.db.conn.QueryRowContext(ctx, query, args...).Scan(&entry.Fingerprint, &entry.URL, &entry.Title, &category, &seenAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.LedgerEntry{}, false, nil
	case err != nil:
		return domain.LedgerEntry{}, false, fmt.Errorf("load entry: %w", err)
	}
	entry.Category = domain.Category(category)
	entry.SeenAt = time.UnixMilli(seenAt).UTC()
	return entry, true, nil
}

func sweep(ctx context.Context, db *DB, table, column string, cutoff time.Time) (int64, error) {
	query, args, err := db.builder.
		Delete(table).
		Where(sq.Lt{column: cutoff.UnixMilli()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep: %w", err)
	}

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
