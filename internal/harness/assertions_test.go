package harness

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forecastdb/internal/page"
)

func sampleResult() *Result {
	r := NewResult()
	r.Columns = []string{"country_id", "sc_m1"}
	r.TotalRows, r.TotalPages = ptr(int64(2)), ptr(int64(2))
	r.Pages[1] = []page.Row{
		{Columns: r.Columns, Values: []any{int64(42), decimal.RequireFromString("0.6543")}},
		{Columns: r.Columns, Values: []any{int64(7), nil}},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	failures := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertColumns, Columns: []string{"country_id", "sc_m1"}},
		{Type: AssertColumnValues, Page: 1, Column: "country_id", Values: []any{42, 7}},
		{Type: AssertColumnValues, Page: 1, Column: "sc_m1", Values: []any{0.6543, nil}},
		{Type: AssertRowCount, Page: 1, Count: ptr(int64(2))},
		{Type: AssertTotalRows, Count: ptr(int64(2))},
		{Type: AssertTotalPages, Count: ptr(int64(2))},
	})
	assert.Empty(t, failures)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	testCases := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "columns",
			assertion: Assertion{Type: AssertColumns, Columns: []string{"sc_m1"}},
			want:      "Actual: country_id, sc_m1",
		},
		{
			name:      "values",
			assertion: Assertion{Type: AssertColumnValues, Page: 1, Column: "sc_m1", Values: []any{0.6543, 0}},
			want:      "Actual: sc_m1 = [0.6543 null]",
		},
		{
			name:      "missing column",
			assertion: Assertion{Type: AssertColumnValues, Page: 1, Column: "m2", Values: []any{1, 2}},
			want:      "column not projected",
		},
		{
			name:      "row count",
			assertion: Assertion{Type: AssertRowCount, Page: 1, Count: ptr(int64(3))},
			want:      "Expected: 3",
		},
		{
			name:      "total pages",
			assertion: Assertion{Type: AssertTotalPages, Count: ptr(int64(1))},
			want:      "Actual: 2",
		},
		{
			name:      "error expected",
			assertion: Assertion{Type: AssertError, Code: "NOT_FOUND"},
			want:      "Actual: no error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleResult(), []Assertion{tc.assertion})
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], "assertions[0]: Assertion failed: "+tc.assertion.Type)
			assert.Contains(t, failures[0], tc.want)
		})
	}
}

func TestEvaluateAssertions_AfterError(t *testing.T) {
	r := NewResult()
	r.ErrCode = "OUT_OF_BOUNDS"

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertError, Code: "OUT_OF_BOUNDS"}}))

	failures := EvaluateAssertions(r, []Assertion{
		{Type: AssertError, Code: "NOT_FOUND"},
		{Type: AssertTotalRows, Count: ptr(int64(0))},
	})
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "Actual: OUT_OF_BOUNDS")
	assert.Contains(t, failures[1], "failed with OUT_OF_BOUNDS")
}

func TestRender(t *testing.T) {
	testCases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{decimal.RequireFromString("5.5556"), "5.5556"},
		{decimal.RequireFromString("2.0000"), "2"},
		{0.6543, "0.6543"},
		{3.0, "3"},
		{42, "42"},
		{int64(72201), "72201"},
		{"EGY", "EGY"},
		{true, "true"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, render(tc.in), "%v", tc.in)
	}
}
