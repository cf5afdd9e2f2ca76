package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/forecastdb/internal/filter"
	"github.com/roach88/forecastdb/internal/schema"
)

// Scenario defines one fetch request and the assertions over its result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Run is the run id, matched case-insensitively.
	Run string `yaml:"run"`

	// LOA is the level of analysis, "cm" or "pgm".
	LOA string `yaml:"loa"`

	// Models lists the models to project. Empty projects the fixed columns only.
	Models []string `yaml:"models,omitempty"`

	// Components also projects every model's component columns.
	Components bool `yaml:"components,omitempty"`

	// PageSize defaults to page.DefaultPageSize when zero.
	PageSize int `yaml:"page_size,omitempty"`

	// Filters are applied before counting and fetching.
	Filters filter.Request `yaml:"filters,omitempty"`

	// Pages lists the 1-based pages to fetch, in order.
	Pages []int `yaml:"pages"`

	// Assertions validate the result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Page is the fetched page (used by column_values and row_count).
	Page int `yaml:"page,omitempty"`

	// Column is the column name (used by column_values).
	Column string `yaml:"column,omitempty"`

	// Columns is the expected projection (used by columns).
	Columns []string `yaml:"columns,omitempty"`

	// Values are the expected column values in row order (used by
	// column_values). null matches SQL NULL.
	Values []any `yaml:"values,omitempty"`

	// Count is the expected number (used by row_count, total_rows, total_pages).
	Count *int64 `yaml:"count,omitempty"`

	// Code is the expected error code (used by error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertColumns      = "columns"
	AssertColumnValues = "column_values"
	AssertRowCount     = "row_count"
	AssertTotalRows    = "total_rows"
	AssertTotalPages   = "total_pages"
	AssertError        = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Run == "" {
		return fmt.Errorf("run is required")
	}
	if _, err := schema.ParseLOA(s.LOA); err != nil {
		return fmt.Errorf("loa: %w", err)
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	fetched := make(map[int]bool, len(s.Pages))
	for _, p := range s.Pages {
		fetched[p] = true
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], fetched); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, fetched map[int]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertColumns:
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns list is required for columns", index)
		}
	case AssertColumnValues:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for column_values", index)
		}
		if !fetched[a.Page] {
			return fmt.Errorf("assertions[%d]: page %d is not in pages", index, a.Page)
		}
	case AssertRowCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for row_count", index)
		}
		if !fetched[a.Page] {
			return fmt.Errorf("assertions[%d]: page %d is not in pages", index, a.Page)
		}
	case AssertTotalRows, AssertTotalPages:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
