package querysql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/forecastdb/internal/filter"
	"github.com/roach88/forecastdb/internal/schema"
	"github.com/roach88/forecastdb/internal/store"
)

// NumericType is the precision every model column is cast to.
const NumericType = "NUMERIC(14,4)"

// Column is one projected column of a wide table.
type Column struct {
	Name    string
	Numeric bool // cast to NumericType and re-aliased to Name
}

// SQLCompiler compiles predicate lists to parameterized SQL for one dialect.
//
// Every page query orders by (time index, row identifier) so that paging is
// stable. Values are always bound, never interpolated. Only identifiers that
// pass schema.Quote reach the SQL text.
type SQLCompiler struct {
	dialect store.Dialect
	tables  schema.Tables
}

// NewSQLCompiler creates a compiler for the given dialect and table naming.
func NewSQLCompiler(dialect store.Dialect, tables schema.Tables) *SQLCompiler {
	return &SQLCompiler{dialect: dialect, tables: tables}
}

// PageQuery describes one page of a wide table.
type PageQuery struct {
	Table      string // unqualified wide-table name
	Layout     schema.Layout
	Columns    []Column
	Predicates []filter.Predicate
	Limit      uint64
	Offset     uint64
}

// Count compiles a row count over table restricted by every predicate.
// Returns (sql, params, error).
func (c *SQLCompiler) Count(table string, preds []filter.Predicate) (string, []any, error) {
	from, err := c.tables.DataTable(table)
	if err != nil {
		return "", nil, err
	}
	b := sq.Select("count(*)").From(from)
	b, err = c.where(b, preds)
	if err != nil {
		return "", nil, err
	}
	return b.PlaceholderFormat(c.dialect.Placeholder()).ToSql()
}

// Page compiles a page query. Returns (sql, params, error).
//
// MANDATORY: rows are ordered by (time index, row identifier) ascending.
func (c *SQLCompiler) Page(q PageQuery) (string, []any, error) {
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("page query on %s: no columns", q.Table)
	}
	from, err := c.tables.DataTable(q.Table)
	if err != nil {
		return "", nil, err
	}

	cols := make([]string, 0, len(q.Columns))
	for _, col := range q.Columns {
		expr, err := c.projection(col)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, expr)
	}

	b := sq.Select(cols...).From(from)
	b, err = c.where(b, q.Predicates)
	if err != nil {
		return "", nil, err
	}

	timeID, err := schema.Quote(q.Layout.TimeID)
	if err != nil {
		return "", nil, err
	}
	rowID, err := schema.Quote(q.Layout.RowID)
	if err != nil {
		return "", nil, err
	}

	return b.OrderBy(timeID+" ASC", rowID+" ASC").
		Limit(q.Limit).
		Offset(q.Offset).
		PlaceholderFormat(c.dialect.Placeholder()).
		ToSql()
}

// projection renders one SELECT list entry.
//
//	"name"                                  plain column
//	CAST("name" AS NUMERIC(14,4)) AS "name" numeric column
func (c *SQLCompiler) projection(col Column) (string, error) {
	q, err := schema.Quote(col.Name)
	if err != nil {
		return "", err
	}
	if !col.Numeric {
		return q, nil
	}
	return fmt.Sprintf("CAST(%s AS %s) AS %s", q, NumericType, q), nil
}

// where appends every predicate to b, joined by AND.
func (c *SQLCompiler) where(b sq.SelectBuilder, preds []filter.Predicate) (sq.SelectBuilder, error) {
	for i, p := range preds {
		cond, err := c.Predicate(p)
		if err != nil {
			return b, fmt.Errorf("compile predicate %d: %w", i, err)
		}
		b = b.Where(cond)
	}
	return b, nil
}

// Predicate compiles a single predicate to a WHERE fragment.
// CRITICAL: the value set is always a single bound parameter.
func (c *SQLCompiler) Predicate(p filter.Predicate) (sq.Sqlizer, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot compile nil predicate")
	}

	switch pred := p.(type) {
	case filter.InSet:
		return c.compileInSet(pred)
	case *filter.InSet:
		return c.compileInSet(*pred)
	case filter.Mapped:
		return c.compileMapped(pred)
	case *filter.Mapped:
		return c.compileMapped(*pred)
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileInSet compiles InSet to `"column" = ANY(?)` or its SQLite equivalent.
func (c *SQLCompiler) compileInSet(p filter.InSet) (sq.Sqlizer, error) {
	col, err := schema.Quote(p.Column)
	if err != nil {
		return nil, err
	}
	return c.dialect.AnyOf(col, p.Values)
}

// compileMapped compiles Mapped to a subquery over the grid-to-country table:
//
//	"column" IN (SELECT DISTINCT column FROM pg2c WHERE key = ANY(?))
func (c *SQLCompiler) compileMapped(p filter.Mapped) (sq.Sqlizer, error) {
	col, err := schema.Quote(p.Column)
	if err != nil {
		return nil, err
	}
	if !schema.Ident(p.Key) {
		return nil, fmt.Errorf("invalid mapping key %q", p.Key)
	}
	inner, err := c.dialect.AnyOf(p.Key, p.Values)
	if err != nil {
		return nil, err
	}
	innerSQL, args, err := inner.ToSql()
	if err != nil {
		return nil, err
	}
	subquery := fmt.Sprintf("%s IN (SELECT DISTINCT %s FROM %s WHERE %s)",
		col, p.Column, c.tables.PG2C(), innerSQL)
	return sq.Expr(subquery, args...), nil
}
