// Package schema describes the fixed physical layout the read layer queries:
// the structure tables, the per-run wide tables, and the closed set of
// identifiers that may be substituted into SQL text.
//
// Values never pass through this package. Only table and column names do,
// and only after Ident validation.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/forecastdb/internal/errs"
)

// LOA is a level of analysis.
type LOA string

const (
	// CountryMonth rows are keyed by country_id.
	CountryMonth LOA = "cm"

	// GridMonth rows are keyed by pg_id.
	GridMonth LOA = "pgm"
)

// LOAs lists every level of analysis in tree order.
var LOAs = []LOA{CountryMonth, GridMonth}

// ParseLOA parses "cm" or "pgm", case-insensitively.
func ParseLOA(s string) (LOA, error) {
	switch LOA(strings.ToLower(strings.TrimSpace(s))) {
	case CountryMonth:
		return CountryMonth, nil
	case GridMonth:
		return GridMonth, nil
	}
	return "", errs.NotFound("level of analysis %q (want cm or pgm)", s)
}

// TV is a type of violence.
type TV string

const (
	StateBased TV = "sb"
	NonState   TV = "ns"
	OneSided   TV = "os"
	Proxy      TV = "px"
)

// TVs lists every type of violence in tree order.
var TVs = []TV{StateBased, NonState, OneSided, Proxy}

// Column names shared by every wide table.
const (
	TimeID     = "month_id"
	PriogridID = "pg_id"
	CountryID  = "country_id"
)

// Layout is the shape of one level of analysis' wide table.
type Layout struct {
	LOA    LOA
	Suffix string   // appended to the run id to form the table name
	RowID  string   // row identifier column
	TimeID string   // temporal index column
	Sugar  []string // descriptive columns projected before model columns
}

// LayoutOf returns the wide-table layout for loa.
func LayoutOf(loa LOA) Layout {
	if loa == GridMonth {
		return Layout{LOA: GridMonth, Suffix: "_pgm", RowID: PriogridID, TimeID: TimeID}
	}
	return Layout{
		LOA:    CountryMonth,
		Suffix: "_cm",
		RowID:  CountryID,
		TimeID: TimeID,
		Sugar:  []string{"name", "gwcode", "isoab", "year", "month"},
	}
}

// TableName returns the unqualified wide-table name for a run.
func (l Layout) TableName(runID string) string {
	return strings.ToLower(runID) + l.Suffix
}

// FixedColumns returns the identifier and descriptive columns in projection order.
func (l Layout) FixedColumns() []string {
	cols := make([]string, 0, 2+len(l.Sugar))
	cols = append(cols, l.RowID, l.TimeID)
	return append(cols, l.Sugar...)
}

// GridIndexed reports whether rows are keyed by grid cell.
func (l Layout) GridIndexed() bool {
	return l.RowID == PriogridID
}

// Tables names the structure schema and the data schema.
// An empty schema leaves table names unqualified.
type Tables struct {
	Structure string
	Data      string
}

// DefaultTables matches the production Postgres layout.
var DefaultTables = Tables{Structure: "structure", Data: "public"}

func (t Tables) Register() string   { return qualify(t.Structure, "register") }
func (t Tables) Generation() string { return qualify(t.Structure, "generation") }
func (t Tables) Model() string      { return qualify(t.Structure, "model") }
func (t Tables) Components() string { return qualify(t.Structure, "components") }
func (t Tables) Country() string    { return qualify(t.Structure, "country") }
func (t Tables) PG2C() string       { return qualify(t.Structure, "pg2c") }

// DataTable returns the quoted, qualified name of a wide table.
func (t Tables) DataTable(name string) (string, error) {
	q, err := Quote(name)
	if err != nil {
		return "", err
	}
	if t.Data == "" {
		return q, nil
	}
	s, err := Quote(t.Data)
	if err != nil {
		return "", err
	}
	return s + "." + q, nil
}

// Validate checks that both schema names are valid identifiers.
func (t Tables) Validate() error {
	for _, s := range []string{t.Structure, t.Data} {
		if s != "" && !Ident(s) {
			return fmt.Errorf("invalid schema name %q", s)
		}
	}
	return nil
}

func qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Ident reports whether s may be used as a SQL identifier.
func Ident(s string) bool {
	return identRE.MatchString(s)
}

// Quote validates s and returns it double-quoted.
func Quote(s string) (string, error) {
	if !Ident(s) {
		return "", errs.NotFound("invalid identifier %q", s)
	}
	return `"` + s + `"`, nil
}
