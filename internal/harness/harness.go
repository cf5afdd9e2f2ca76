package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/forecastdb/internal/catalog"
	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/page"
	"github.com/roach88/forecastdb/internal/schema"
)

// ErrCodeUntyped is recorded for request errors that carry no errs code.
const ErrCodeUntyped = "ERROR"

// Harness runs scenarios against one catalog.
type Harness struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// New returns a Harness over cat. A nil logger uses slog.Default().
func New(cat *catalog.Catalog, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{catalog: cat, logger: logger}
}

// Run executes a scenario and evaluates its assertions.
//
// Execution flow:
//  1. Resolve the run and create a page.Fetcher for the scenario's table
//  2. Initialize the fetcher and apply the filters
//  3. Count the filtered rows and plan the columns
//  4. Fetch every listed page
//
// The first request error ends the flow and is recorded in the result.
// Storage failures are returned as errors instead.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	err := h.execute(ctx, scenario, result)
	switch {
	case errs.IsStorage(err):
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	case err != nil:
		result.ErrCode = errorCode(err)
		result.Trace = append(result.Trace, TraceEvent{Step: StepError, Error: result.ErrCode})
		h.logger.Debug("scenario request failed", "scenario", scenario.Name, "error", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"steps", len(result.Trace))
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario, result *Result) error {
	loa, err := schema.ParseLOA(scenario.LOA)
	if err != nil {
		return err
	}
	run, err := h.catalog.GetRun(scenario.Run)
	if err != nil {
		return err
	}

	f, err := page.New(run, page.Options{
		LOA:        loa,
		Models:     scenario.Models,
		PageSize:   scenario.PageSize,
		Components: scenario.Components,
	})
	if err != nil {
		return err
	}
	if err := f.Init(ctx); err != nil {
		return err
	}
	result.Table = f.Table()
	result.addStep(StepInit, map[string]any{"table": f.Table(), "page_size": f.PageSize()})

	if err := f.Filters().Apply(ctx, scenario.Filters); err != nil {
		return err
	}
	result.addStep(StepFilters, map[string]any{"predicates": f.Filters().Len()})

	rows, pages, err := f.TotalCounts(ctx)
	if err != nil {
		return err
	}
	result.TotalRows, result.TotalPages = &rows, &pages
	result.addStep(StepCount, map[string]any{"rows": rows, "pages": pages})

	if result.Columns, err = f.Columns(ctx); err != nil {
		return err
	}
	result.addStep(StepColumns, map[string]any{"columns": result.Columns})

	for _, p := range scenario.Pages {
		got, err := f.Fetch(ctx, p)
		if err != nil {
			return err
		}
		if got == nil {
			got = []page.Row{}
		}
		result.Pages[p] = got
		result.Trace = append(result.Trace, TraceEvent{
			Step:   StepFetch,
			Page:   p,
			Detail: map[string]any{"rows": got},
		})
	}
	return nil
}

func errorCode(err error) string {
	var e *errs.Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return ErrCodeUntyped
}
