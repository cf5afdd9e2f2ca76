package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // assertion type for categorization
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertError {
		return assertError(result, a)
	}
	if result.ErrCode != "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: "request to succeed",
			Actual:   "failed with " + result.ErrCode,
		}
	}

	switch a.Type {
	case AssertColumns:
		return assertColumns(result, a)
	case AssertColumnValues:
		return assertColumnValues(result, a)
	case AssertRowCount:
		return assertCount(a.Type, int64(len(result.Pages[a.Page])), a.Count)
	case AssertTotalRows:
		return assertCount(a.Type, deref(result.TotalRows), a.Count)
	case AssertTotalPages:
		return assertCount(a.Type, deref(result.TotalPages), a.Count)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertError(result *Result, a Assertion) error {
	if result.ErrCode == a.Code {
		return nil
	}
	actual := "no error"
	if result.ErrCode != "" {
		actual = result.ErrCode
	}
	return &AssertionError{Type: AssertError, Expected: a.Code, Actual: actual}
}

func assertColumns(result *Result, a Assertion) error {
	if slices.Equal(result.Columns, a.Columns) {
		return nil
	}
	return &AssertionError{
		Type:     AssertColumns,
		Expected: strings.Join(a.Columns, ", "),
		Actual:   strings.Join(result.Columns, ", "),
	}
}

func assertColumnValues(result *Result, a Assertion) error {
	rows := result.Pages[a.Page]
	actual := make([]string, len(rows))
	for i, row := range rows {
		v, ok := row.Get(a.Column)
		if !ok {
			return &AssertionError{
				Type:     AssertColumnValues,
				Expected: fmt.Sprintf("column %s on page %d", a.Column, a.Page),
				Actual:   "column not projected",
			}
		}
		actual[i] = render(v)
	}

	expected := make([]string, len(a.Values))
	for i, v := range a.Values {
		expected[i] = render(v)
	}
	if slices.Equal(actual, expected) {
		return nil
	}
	return &AssertionError{
		Type:     AssertColumnValues,
		Expected: fmt.Sprintf("%s = [%s]", a.Column, strings.Join(expected, " ")),
		Actual:   fmt.Sprintf("%s = [%s]", a.Column, strings.Join(actual, " ")),
	}
}

func assertCount(typ string, actual int64, expected *int64) error {
	if actual == *expected {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: strconv.FormatInt(*expected, 10),
		Actual:   strconv.FormatInt(actual, 10),
	}
}

// render formats fetched values and YAML scalars the same way, so that a
// decimal 0.6543 matches the YAML float 0.6543.
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case decimal.Decimal:
		return x.String()
	case float64:
		return decimal.NewFromFloat(x).String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func deref(n *int64) int64 {
	if n == nil {
		return -1
	}
	return *n
}
