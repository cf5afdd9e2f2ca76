package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/store"
)

// Catalog is the immutable set of runs known when it was opened.
type Catalog struct {
	st   *store.Store
	ids  []string
	runs map[string]*Run
}

// Open loads every run from the registry.
func Open(ctx context.Context, st *store.Store) (*Catalog, error) {
	raw, err := store.Column[string](ctx, st, "list_runs", st.SQL().
		Select("LOWER(run)").Distinct().
		From(st.Tables().Register()).
		OrderBy("LOWER(run)"))
	if err != nil {
		return nil, err
	}

	c := &Catalog{st: st, runs: make(map[string]*Run, len(raw))}
	for _, id := range raw {
		id = FoldID(id)
		if _, ok := c.runs[id]; ok {
			continue
		}
		c.runs[id] = newRun(id, st)
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)

	slog.Debug("catalog loaded", "runs", len(c.ids))
	return c, nil
}

// FoldID normalizes a run identifier for case-insensitive matching.
func FoldID(id string) string {
	return cases.Fold().String(strings.TrimSpace(id))
}

// Store returns the store the catalog reads from.
func (c *Catalog) Store() *store.Store {
	return c.st
}

// ListRuns returns run identifiers in ascending order.
func (c *Catalog) ListRuns() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// IsRun reports whether id names a known run, ignoring case.
func (c *Catalog) IsRun(id string) bool {
	_, ok := c.runs[FoldID(id)]
	return ok
}

// GetRun returns the run named id, ignoring case.
func (c *Catalog) GetRun(id string) (*Run, error) {
	r, ok := c.runs[FoldID(id)]
	if !ok {
		return nil, errs.NotFound("run %q", id)
	}
	return r, nil
}

// Models returns every model node in the hierarchy table, across all runs.
func (c *Catalog) Models(ctx context.Context) ([]string, error) {
	return store.Column[string](ctx, c.st, "list_models", c.st.SQL().
		Select("node").Distinct().
		From(c.st.Tables().Model()).
		OrderBy("node"))
}
