package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is a migrated database handle plus a statement builder using the
// placeholder style of its driver.
type DB struct {
	conn    *sql.DB
	builder sq.StatementBuilderType
}

// Open connects to sqlite (a file path) or postgres (a connection string)
// and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)

	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		path := strings.TrimPrefix(dsn, "file:")
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		conn, err = sql.Open(DriverSQLite, fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		conn.SetMaxOpenConns(1)
	case DriverPostgres:
		conn, err = sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn, builder: builder}, nil
}

// ensureDir creates the parent directory of a sqlite file so a fresh
// checkout can open the default data/ path.
func ensureDir(path string) error {
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir %s: %w", dir, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

func migrate(ctx context.Context, conn *sql.DB) error {
	// seen_at and cached_at hold unix milliseconds.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS seen_content (
			fingerprint TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			seen_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_content_seen_at ON seen_content(seen_at)`,
		`CREATE TABLE IF NOT EXISTS summary_cache (
			url_hash TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			cached_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_cache_cached_at ON summary_cache(cached_at)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
