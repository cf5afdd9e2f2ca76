package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/metrics"
	"github.com/roach88/forecastdb/internal/schema"
)

// Config describes how to reach the relational store.
type Config struct {
	Driver       string // "pgx" or "sqlite3"
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Tables       schema.Tables
}

// Store is a read-only handle on the forecast database.
// It is safe for concurrent use; each query borrows a pooled connection for
// its own duration only.
type Store struct {
	db      *sql.DB
	dialect Dialect
	tables  schema.Tables
}

// Open connects to the store described by cfg and verifies the connection.
//
// SQLite connections are opened with:
//   - query_only: the read layer never writes
//   - busy_timeout=5000: wait for writers up to 5 seconds
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if err := cfg.Tables.Validate(); err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(DriverName(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Storage("connect", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return &Store{db: db, dialect: dialect, tables: cfg.Tables}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_query_only=1&_busy_timeout=5000"
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the connected engine.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Tables returns the configured table names.
func (s *Store) Tables() schema.Tables {
	return s.tables
}

// SQL returns a statement builder that emits this store's placeholders.
func (s *Store) SQL() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.Placeholder())
}

// Query executes an already-compiled query and returns the resulting rows.
// The placeholders in query must match the store's dialect.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, op, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	metrics.ObserveQuery(op, start, err)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	slog.Debug("query", "op", op, "duration", time.Since(start))
	return rows, nil
}

// Select compiles b and executes it.
func (s *Store) Select(ctx context.Context, op string, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	return s.Query(ctx, op, query, args...)
}

// Column runs a single-column query and scans every row into a T.
// Returns an empty slice (not nil) when no rows match.
func Column[T any](ctx context.Context, s *Store, op string, b sq.Sqlizer) ([]T, error) {
	rows, err := s.Select(ctx, op, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var v T
		if err := rows.Scan(&v); err != nil {
			return nil, errs.Storage(op+": scan", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(op+": iterate", err)
	}
	return out, nil
}

// One runs a single-column query that must produce exactly one row.
// Zero or several rows fail with AMBIGUOUS_OR_MISSING.
func One[T any](ctx context.Context, s *Store, op string, b sq.Sqlizer) (T, error) {
	var zero T
	vals, err := Column[T](ctx, s, op, b)
	if err != nil {
		return zero, err
	}
	if len(vals) != 1 {
		return zero, errs.AmbiguousOrMissing(op, len(vals))
	}
	return vals[0], nil
}
