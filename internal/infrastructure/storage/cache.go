package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ClaudeDigest/internal/ports"
)

const cacheTable = "summary_cache"

// ContentCache stores extracted summaries keyed by sha256 of the page URL.
type ContentCache struct {
	db  *DB
	now func() time.Time
}

var _ ports.ContentCache = (*ContentCache)(nil)

func NewContentCache(db *DB) *ContentCache {
	return &ContentCache{db: db, now: time.Now}
}

// WithClock overrides the time source used for cached_at and sweeps.
func (c *ContentCache) WithClock(now func() time.Time) *ContentCache {
	c.now = now
	return c
}

func urlHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached summary for url, if any.
func (c *ContentCache) Get(ctx context.Context, url string) (string, bool, error) {
	query, args, err := c.db.builder.
		Select("summary").
		From(cacheTable).
		Where(sq.Eq{"url_hash": urlHash(url)}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build cache lookup: %w", err)
	}

	var summary string
	err = c.db.conn.QueryRowContext(ctx, query, args...).Scan(&summary)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return summary, true, nil
}

// Put stores or refreshes the summary for url.
func (c *ContentCache) Put(ctx context.Context, url, summary string) error {
	query, args, err := c.db.builder.
		Insert(cacheTable).
		Columns("url_hash", "summary", "cached_at").
		Values(urlHash(url), summary, c.now().UnixMilli()).
		Suffix("ON CONFLICT (url_hash) DO UPDATE SET summary = excluded.summary, cached_at = excluded.cached_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cache insert: %w", err)
	}

	if _, err := c.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Sweep drops summaries cached strictly before now-retention.
func (c *ContentCache) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	return sweep(ctx, c.db, cacheTable, "cached_at", c.now().Add(-retention))
}
