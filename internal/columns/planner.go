// Package columns computes the projection of a page query: the fixed
// identifier and descriptive columns of a wide table followed by the model
// columns, optionally expanded with their component columns.
//
// Models that do not self-simulate are stored under an "sc_" prefix. The
// prefix is decided per model from the dynasim flag in the model table.
package columns

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/forecastdb/internal/querysql"
	"github.com/roach88/forecastdb/internal/schema"
	"github.com/roach88/forecastdb/internal/store"
)

// SimulatedPrefix marks the storage column of a non-dynasim model.
const SimulatedPrefix = "sc_"

// dynasimCacheSize bounds the per-planner dynasim flag cache.
const dynasimCacheSize = 512

// Planner plans the columns of one wide table.
// It is safe for concurrent use.
type Planner struct {
	st     *store.Store
	table  string
	layout schema.Layout

	dynasim *lru.Cache[string, bool]
}

// NewPlanner returns a planner for the wide table named table.
func NewPlanner(st *store.Store, layout schema.Layout, table string) (*Planner, error) {
	cache, err := lru.New[string, bool](dynasimCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dynasim cache: %w", err)
	}
	return &Planner{st: st, table: table, layout: layout, dynasim: cache}, nil
}

// IsDynasim reports whether model self-simulates. Flags are cached after
// the first lookup. A model without exactly one distinct flag fails with
// AMBIGUOUS_OR_MISSING.
func (p *Planner) IsDynasim(ctx context.Context, model string) (bool, error) {
	if v, ok := p.dynasim.Get(model); ok {
		return v, nil
	}
	v, err := store.One[bool](ctx, p.st, "model_dynasim", p.st.SQL().
		Select("CAST(dynasim AS BOOLEAN)").Distinct().
		From(p.st.Tables().Model()).
		Where("node = ?", model))
	if err != nil {
		return false, err
	}
	p.dynasim.Add(model, v)
	return v, nil
}

// Labels maps model names to their storage columns: every non-dynasim
// model with the "sc_" prefix first, then the dynasim models, each group
// in input order.
func (p *Planner) Labels(ctx context.Context, models []string) ([]string, error) {
	var simulated, dynamic []string
	for _, m := range models {
		dyn, err := p.IsDynasim(ctx, m)
		if err != nil {
			return nil, err
		}
		if dyn {
			dynamic = append(dynamic, m)
		} else {
			simulated = append(simulated, SimulatedPrefix+m)
		}
	}
	labels := make([]string, 0, len(models))
	labels = append(labels, simulated...)
	return append(labels, dynamic...), nil
}

// Components lists the component columns registered for lead on this table.
func (p *Planner) Components(ctx context.Context, lead string) ([]string, error) {
	return store.Column[string](ctx, p.st, "components", p.st.SQL().
		Select("target").
		From(p.st.Tables().Components()).
		Where("table_name = ?", p.table).
		Where("lead = ?", lead).
		OrderBy("target"))
}

// Base returns the fixed columns followed by the model columns.
func (p *Planner) Base(ctx context.Context, models []string) ([]querysql.Column, error) {
	labels, err := p.Labels(ctx, models)
	if err != nil {
		return nil, err
	}
	return p.project(labels), nil
}

// Augmented returns the fixed columns followed by the model columns and
// every component column of those models.
func (p *Planner) Augmented(ctx context.Context, models []string) ([]querysql.Column, error) {
	labels, err := p.Labels(ctx, models)
	if err != nil {
		return nil, err
	}
	all := append([]string(nil), labels...)
	for _, l := range labels {
		targets, err := p.Components(ctx, l)
		if err != nil {
			return nil, err
		}
		all = append(all, targets...)
	}
	return p.project(all), nil
}

// project prepends the fixed columns and marks the rest numeric. Repeated
// names keep their first position.
func (p *Planner) project(names []string) []querysql.Column {
	fixed := p.layout.FixedColumns()
	cols := make([]querysql.Column, 0, len(fixed)+len(names))
	seen := make(map[string]bool, len(fixed)+len(names))
	for _, f := range fixed {
		seen[f] = true
		cols = append(cols, querysql.Column{Name: f})
	}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		cols = append(cols, querysql.Column{Name: n, Numeric: true})
	}
	return cols
}
