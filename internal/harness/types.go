package harness

import "github.com/roach88/forecastdb/internal/page"

// Trace step names.
const (
	StepInit    = "init"
	StepFilters = "filters"
	StepCount   = "count"
	StepColumns = "columns"
	StepFetch   = "fetch"
	StepError   = "error"
)

// TraceEvent records one step of a scenario execution.
type TraceEvent struct {
	Step   string         `json:"step"`
	Page   int            `json:"page,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Table      string             `json:"table,omitempty"`
	Columns    []string           `json:"columns,omitempty"`
	Pages      map[int][]page.Row `json:"pages,omitempty"`
	TotalRows  *int64             `json:"total_rows,omitempty"`
	TotalPages *int64             `json:"total_pages,omitempty"`

	// ErrCode is the code of the error that ended the request, if any.
	ErrCode string `json:"err_code,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Pages:  make(map[int][]page.Row),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addStep(step string, detail map[string]any) {
	r.Trace = append(r.Trace, TraceEvent{Step: step, Detail: detail})
}
