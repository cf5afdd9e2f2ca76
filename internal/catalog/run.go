package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/store"
)

// Boundary selects the first or last month of a run.
type Boundary int

const (
	Start Boundary = iota
	End
)

func (b Boundary) column() string {
	if b == End {
		return "end_date"
	}
	return "start_date"
}

// Run is one forecast generation. Its identity never changes; its model tree
// is resolved on first use and cached.
type Run struct {
	ID string
	st *store.Store

	mu    sync.Mutex
	tree  *ModelTree
	group singleflight.Group
}

func newRun(id string, st *store.Store) *Run {
	return &Run{ID: id, st: st}
}

// Store returns the store the run reads from.
func (r *Run) Store() *store.Store {
	return r.st
}

// byRun matches registry rows for this run, ignoring case.
func (r *Run) byRun() sq.Sqlizer {
	return sq.Expr("LOWER(run) = LOWER(?)", r.ID)
}

// DateRange returns the run's start or end date.
// The registry must hold exactly one distinct value for the boundary.
func (r *Run) DateRange(ctx context.Context, which Boundary) (time.Time, error) {
	op := "run_" + which.column()
	vals, err := store.Column[any](ctx, r.st, op, r.st.SQL().
		Select(which.column()).Distinct().
		From(r.st.Tables().Register()).
		Where(r.byRun()))
	if err != nil {
		return time.Time{}, err
	}
	if len(vals) != 1 {
		return time.Time{}, errs.AmbiguousOrMissing(fmt.Sprintf("%s of run %q", which.column(), r.ID), len(vals))
	}
	return toDate(vals[0])
}

// StartDate is DateRange(ctx, Start).
func (r *Run) StartDate(ctx context.Context) (time.Time, error) {
	return r.DateRange(ctx, Start)
}

// EndDate is DateRange(ctx, End).
func (r *Run) EndDate(ctx context.Context) (time.Time, error) {
	return r.DateRange(ctx, End)
}

// Codebook returns the codebook reference of the run's generation.
func (r *Run) Codebook(ctx context.Context) (string, error) {
	tables := r.st.Tables()
	vals, err := store.Column[string](ctx, r.st, "run_codebook", r.st.SQL().
		Select("codebook").Distinct().
		From(tables.Generation()).
		Where(sq.Expr("id IN (SELECT DISTINCT generation_id FROM "+tables.Register()+" WHERE LOWER(run) = LOWER(?))", r.ID)))
	if err != nil {
		return "", err
	}
	if len(vals) != 1 {
		return "", errs.AmbiguousOrMissing(fmt.Sprintf("codebook of run %q", r.ID), len(vals))
	}
	return vals[0], nil
}

// toDate converts a driver date value to a calendar date at UTC midnight.
func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		return parseDate(d)
	case []byte:
		return parseDate(string(d))
	}
	return time.Time{}, fmt.Errorf("unexpected date value %v (%T)", v, v)
}

func parseDate(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
