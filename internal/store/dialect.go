package store

import (
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the few places where Postgres and SQLite disagree.
type Dialect string

const (
	// Postgres is the production engine, reached through pgx.
	Postgres Dialect = "postgres"

	// SQLite serves local extracts and test fixtures.
	SQLite Dialect = "sqlite"
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported driver %q (want pgx, postgres or sqlite3)", driver)
}

// DriverName returns the name driver is registered under with database/sql.
// pgx registers itself only as "pgx", so "postgres" is an alias for it.
func DriverName(driver string) string {
	if driver == "postgres" {
		return "pgx"
	}
	return driver
}

// Placeholder returns the bind-parameter format.
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// AnyOf returns a predicate matching rows whose column is in values.
// values must be a []int64 or []string. The whole set travels as a single
// bind parameter: a native array on Postgres, a JSON array on SQLite.
//
// column is inserted into the SQL text and must come from a trusted,
// validated set.
func (d Dialect) AnyOf(column string, values any) (sq.Sqlizer, error) {
	switch values.(type) {
	case []int64, []string:
	default:
		return nil, fmt.Errorf("AnyOf: unsupported value type %T", values)
	}

	if d == Postgres {
		return sq.Expr(column+" = ANY(?)", values), nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("AnyOf: encode values: %w", err)
	}
	return sq.Expr(column+" IN (SELECT value FROM json_each(?))", string(encoded)), nil
}

// TableColumns returns a query listing a table's columns in ordinal order.
// An empty schemaName means the default schema.
func (d Dialect) TableColumns(schemaName, table string) sq.Sqlizer {
	if d == Postgres {
		if schemaName == "" {
			schemaName = "public"
		}
		return sq.Select("column_name").
			From("information_schema.columns").
			Where("table_schema = ? AND table_name = ?", schemaName, table).
			OrderBy("ordinal_position").
			PlaceholderFormat(sq.Dollar)
	}
	if schemaName == "" {
		schemaName = "main"
	}
	return sq.Expr("SELECT name FROM pragma_table_info(?, ?) ORDER BY cid", table, schemaName)
}
