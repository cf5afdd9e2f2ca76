// Package store provides read-only access to the forecast database.
//
// The store wraps a database/sql connection pool and speaks two dialects:
//   - Postgres (driver "pgx"): the production engine
//   - SQLite (driver "sqlite3"): local extracts and test fixtures
//
// # Query Discipline
//
// Values are never interpolated into SQL text. Every value travels as a bind
// parameter; set membership uses a single array parameter (Dialect.AnyOf).
// Only table and column identifiers from schema.Tables or validated with
// schema.Quote appear in query text.
//
// Every query goes through Store.Query, which records Prometheus metrics and
// wraps driver failures as errs.CodeStorageFailure. Nothing retries.
//
// # Connection Lifetime
//
// Each query borrows a pooled connection for its own duration. No method
// holds a connection across calls, and rows returned by Query must be closed
// by the caller.
package store
