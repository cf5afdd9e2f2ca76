// Package page pages through one wide table of a run.
//
// A Fetcher has two phases. New returns it uninitialized; Init resolves the
// table's column catalog and the stored base row count, after which
// TotalCounts, Columns and Fetch may be called. Calling them earlier fails
// with NOT_INITIALIZED.
//
// Filters are registered on the Fetcher's filter.Set and apply to every
// later count and fetch:
//
//	f, _ := page.New(run, page.Options{LOA: schema.CountryMonth, Models: []string{"m1"}})
//	if err := f.Init(ctx); err != nil { ... }
//	_ = f.Filters().GW(ctx, []int64{2})
//	rows, err := f.Fetch(ctx, 1)
//
// Rows are always ordered by (month_id, row id) ascending. That order is
// the only guarantee that consecutive pages neither skip nor repeat rows.
//
// Counting is expensive on large tables. Without filters TotalCounts
// answers from the registry's stored row count and issues no query. With
// at least one filter every call issues exactly one count query.
package page
