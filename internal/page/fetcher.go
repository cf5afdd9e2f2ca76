package page

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/forecastdb/internal/catalog"
	"github.com/roach88/forecastdb/internal/columns"
	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/filter"
	"github.com/roach88/forecastdb/internal/metrics"
	"github.com/roach88/forecastdb/internal/querysql"
	"github.com/roach88/forecastdb/internal/schema"
	"github.com/roach88/forecastdb/internal/store"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 1000

// Precision is the number of fractional digits kept on numeric values.
const Precision = 4

// Options configures a Fetcher. They are fixed for its lifetime.
type Options struct {
	LOA        schema.LOA
	Models     []string
	PageSize   int
	Components bool // project component columns as well
}

// Fetcher pages through one wide table of a run.
// It is safe for concurrent use.
type Fetcher struct {
	id         uuid.UUID
	run        *catalog.Run
	st         *store.Store
	layout     schema.Layout
	table      string
	models     []string
	limit      uint64
	components bool

	planner  *columns.Planner
	compiler *querysql.SQLCompiler
	filters  *filter.Set

	mu        sync.Mutex
	ready     bool
	known     map[string]bool
	rowCount  int64
	pageCount int64
}

// New returns an uninitialized Fetcher over the run's table for opts.LOA.
func New(run *catalog.Run, opts Options) (*Fetcher, error) {
	layout := schema.LayoutOf(opts.LOA)
	table := layout.TableName(run.ID)
	if !schema.Ident(table) {
		return nil, errs.NotFound("table %q", table)
	}
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	st := run.Store()
	planner, err := columns.NewPlanner(st, layout, table)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		id:         uuid.Must(uuid.NewV7()),
		run:        run,
		st:         st,
		layout:     layout,
		table:      table,
		models:     append([]string(nil), opts.Models...),
		limit:      uint64(size),
		components: opts.Components,
		planner:    planner,
		compiler:   querysql.NewSQLCompiler(st.Dialect(), st.Tables()),
		filters:    filter.NewSet(layout, st),
	}, nil
}

// ID identifies the fetcher in logs.
func (f *Fetcher) ID() string { return f.id.String() }

// Table returns the unqualified name of the wide table.
func (f *Fetcher) Table() string { return f.table }

// PageSize returns the number of rows per page.
func (f *Fetcher) PageSize() int { return int(f.limit) }

// Filters returns the predicate set applied to counts and fetches.
func (f *Fetcher) Filters() *filter.Set { return f.filters }

// Init loads the table's column catalog and its stored row count.
// A table with no columns does not exist and fails with NOT_FOUND.
func (f *Fetcher) Init(ctx context.Context) error {
	cols, err := f.st.TableColumns(ctx, f.table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return errs.NotFound("table %q of run %q", f.table, f.run.ID)
	}

	rows, err := store.One[int64](ctx, f.st, "page_base_count", f.st.SQL().
		Select("row_count").Distinct().
		From(f.st.Tables().Register()).
		Where("table_name = ?", f.table))
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}

	f.mu.Lock()
	f.known = known
	f.rowCount = rows
	f.pageCount = f.pagesFor(rows)
	f.ready = true
	f.mu.Unlock()

	slog.Debug("fetcher ready",
		"fetch_id", f.ID(),
		"run", f.run.ID,
		"table", f.table,
		"rows", rows,
		"columns", len(cols))
	return nil
}

func (f *Fetcher) pagesFor(rows int64) int64 {
	return rows/int64(f.limit) + 1
}

func (f *Fetcher) checkReady(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		return errs.NotInitialized(op)
	}
	return nil
}

// TotalCounts returns the number of rows and pages.
//
// Without filters it returns the stored counts and queries nothing. With
// filters it counts matching rows on every call and stores the result.
func (f *Fetcher) TotalCounts(ctx context.Context) (rows, pages int64, err error) {
	if err := f.checkReady("TotalCounts"); err != nil {
		return 0, 0, err
	}

	preds := f.filters.Predicates()
	if len(preds) == 0 {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.rowCount, f.pageCount, nil
	}

	query, args, err := f.compiler.Count(f.table, preds)
	if err != nil {
		return 0, 0, err
	}
	n, err := f.scanCount(ctx, query, args)
	if err != nil {
		return 0, 0, err
	}

	f.mu.Lock()
	f.rowCount = n
	f.pageCount = f.pagesFor(n)
	rows, pages = f.rowCount, f.pageCount
	f.mu.Unlock()
	return rows, pages, nil
}

func (f *Fetcher) scanCount(ctx context.Context, query string, args []any) (int64, error) {
	r, err := f.st.Query(ctx, "page_count", query, args...)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var n int64
	if !r.Next() {
		if err := r.Err(); err != nil {
			return 0, errs.Storage("page_count: iterate", err)
		}
		return 0, errs.AmbiguousOrMissing("page_count", 0)
	}
	if err := r.Scan(&n); err != nil {
		return 0, errs.Storage("page_count: scan", err)
	}
	return n, nil
}

// Columns returns the projection a fetch uses, in order. Every column must
// exist in the table.
func (f *Fetcher) Columns(ctx context.Context) ([]string, error) {
	cols, err := f.plan(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

func (f *Fetcher) plan(ctx context.Context) ([]querysql.Column, error) {
	if err := f.checkReady("Columns"); err != nil {
		return nil, err
	}

	var (
		cols []querysql.Column
		err  error
	)
	if f.components {
		cols, err = f.planner.Augmented(ctx, f.models)
	} else {
		cols, err = f.planner.Base(ctx, f.models)
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cols {
		if !f.known[c.Name] {
			return nil, errs.NotFound("column %q in table %q", c.Name, f.table)
		}
	}
	return cols, nil
}

// Offset returns the first row index of page. Pages below 1 are page 1.
func (f *Fetcher) Offset(page int) uint64 {
	if page < 1 {
		page = 1
	}
	return uint64(page-1) * f.limit
}

// Fetch returns one page of rows ordered by (month_id, row id).
func (f *Fetcher) Fetch(ctx context.Context, page int) ([]Row, error) {
	if err := f.checkReady("Fetch"); err != nil {
		return nil, err
	}
	cols, err := f.plan(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := f.compiler.Page(querysql.PageQuery{
		Table:      f.table,
		Layout:     f.layout,
		Columns:    cols,
		Predicates: f.filters.Predicates(),
		Limit:      f.limit,
		Offset:     f.Offset(page),
	})
	if err != nil {
		return nil, err
	}

	r, err := f.st.Query(ctx, "page_fetch", query, args...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	out := []Row{}
	for r.Next() {
		row, err := scanRow(r, cols, names)
		if err != nil {
			return nil, errs.Storage("page_fetch: scan", err)
		}
		out = append(out, row)
	}
	if err := r.Err(); err != nil {
		return nil, errs.Storage("page_fetch: iterate", err)
	}

	metrics.RowsFetched.WithLabelValues(string(f.layout.LOA)).Add(float64(len(out)))
	slog.Debug("page fetched",
		"fetch_id", f.ID(),
		"table", f.table,
		"page", page,
		"rows", len(out))
	return out, nil
}

func scanRow(r *sql.Rows, cols []querysql.Column, names []string) (Row, error) {
	dest := make([]any, len(cols))
	for i, c := range cols {
		if c.Numeric {
			dest[i] = new(decimal.NullDecimal)
		} else {
			dest[i] = new(any)
		}
	}
	if err := r.Scan(dest...); err != nil {
		return Row{}, err
	}

	values := make([]any, len(cols))
	for i := range cols {
		switch d := dest[i].(type) {
		case *decimal.NullDecimal:
			if d.Valid {
				values[i] = d.Decimal.Round(Precision)
			}
		case *any:
			values[i] = plainValue(*d)
		}
	}
	return Row{Columns: names, Values: values}, nil
}

// plainValue normalizes driver values of descriptive columns.
func plainValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	}
	return v
}
