package filter

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/grid"
	"github.com/roach88/forecastdb/internal/region"
	"github.com/roach88/forecastdb/internal/schema"
)

// Resolver looks up country identifiers in the reference tables.
// *store.Store implements it.
type Resolver interface {
	CountriesByISO(ctx context.Context, iso []string) ([]int64, error)
	CountriesByGW(ctx context.Context, gw []int64) ([]int64, error)
}

// GridBox is a rectangle given by two corner cell ids, in any order.
type GridBox struct {
	Corner1, Corner2 int64
}

// LatLonBox is a rectangle given by two corner coordinates, in any order.
type LatLonBox struct {
	Lat1, Lat2 float64
	Lon1, Lon2 float64
}

// LatLon is a single coordinate.
type LatLon struct {
	Lat, Lon float64
}

// Set is an ordered, lock-guarded list of predicates for one table layout.
// The zero value is not usable; create one with NewSet.
type Set struct {
	layout   schema.Layout
	resolver Resolver

	mu    sync.Mutex
	preds []Predicate
}

// NewSet returns an empty Set for tables shaped like layout.
func NewSet(layout schema.Layout, resolver Resolver) *Set {
	return &Set{layout: layout, resolver: resolver}
}

// Predicates returns a copy of the registered predicates in order.
func (s *Set) Predicates() []Predicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Predicate, len(s.preds))
	copy(out, s.preds)
	return out
}

// Len returns the number of registered predicates.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.preds)
}

func (s *Set) add(p Predicate) {
	s.mu.Lock()
	s.preds = append(s.preds, p)
	s.mu.Unlock()
}

// Priogrid restricts rows to the given grid cells. On country-indexed
// tables the cells are translated to the countries they belong to.
func (s *Set) Priogrid(ids []int64) {
	if len(ids) == 0 {
		return
	}
	ids = append([]int64(nil), ids...)
	if s.layout.GridIndexed() {
		s.add(InSet{Column: schema.PriogridID, Values: ids})
		return
	}
	s.add(Mapped{Column: schema.CountryID, Key: schema.PriogridID, Values: ids})
}

// CountryIDs restricts rows to the given countries. On grid-indexed tables
// the countries are translated to their cells.
func (s *Set) CountryIDs(ids []int64) {
	if p := s.countryPredicate(ids); p != nil {
		s.add(p)
	}
}

// countryPredicate returns nil for no ids.
func (s *Set) countryPredicate(ids []int64) Predicate {
	if len(ids) == 0 {
		return nil
	}
	ids = append([]int64(nil), ids...)
	if s.layout.GridIndexed() {
		return Mapped{Column: schema.PriogridID, Key: schema.CountryID, Values: ids}
	}
	return InSet{Column: schema.CountryID, Values: ids}
}

// NormalizeISO upper-cases codes, trims quotes and spaces, and keeps only
// three-letter results.
func NormalizeISO(codes []string) []string {
	upper := cases.Upper(language.Und)
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.Trim(upper.String(c), `'" `)
		if len([]rune(c)) == 3 {
			out = append(out, c)
		}
	}
	return out
}

// ISO restricts rows to the countries with the given ISO-3 alpha codes.
// Codes that resolve to no country register nothing.
func (s *Set) ISO(ctx context.Context, codes []string) error {
	ids, err := s.resolveISO(ctx, codes)
	if err != nil {
		return err
	}
	s.CountryIDs(ids)
	return nil
}

func (s *Set) resolveISO(ctx context.Context, codes []string) ([]int64, error) {
	codes = NormalizeISO(codes)
	if len(codes) == 0 {
		return nil, nil
	}
	return s.resolver.CountriesByISO(ctx, codes)
}

// GW restricts rows to the countries with the given Gleditsch-Ward codes.
func (s *Set) GW(ctx context.Context, codes []int64) error {
	if len(codes) == 0 {
		return nil
	}
	ids, err := s.resolver.CountriesByGW(ctx, codes)
	if err != nil {
		return err
	}
	s.CountryIDs(ids)
	return nil
}

// Region discards every registered predicate and restricts rows to the
// countries of the named region.
func (s *Set) Region(ctx context.Context, name string) error {
	r, ok := region.Lookup(name)
	if !ok {
		return errs.NotFound("region %q", name)
	}
	ids, err := s.resolveISO(ctx, r.ISO)
	if err != nil {
		return err
	}

	p := s.countryPredicate(ids)

	// Reset and register in one step, so no concurrent add lands between.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preds = nil
	if p != nil {
		s.preds = append(s.preds, p)
	}
	return nil
}

// GridBox restricts rows to every cell of the closed rectangle between two
// corner cells.
func (s *Set) GridBox(box *GridBox) error {
	if box == nil {
		return nil
	}
	ids, err := grid.Rect(box.Corner1, box.Corner2)
	if err != nil {
		return err
	}
	s.Priogrid(ids)
	return nil
}

// LatLonBox restricts rows to the cell rectangle spanned by the cells
// containing two corner coordinates.
func (s *Set) LatLonBox(box *LatLonBox) error {
	if box == nil {
		return nil
	}
	c1, err := grid.CellOfLatLon(box.Lat1, box.Lon1)
	if err != nil {
		return err
	}
	c2, err := grid.CellOfLatLon(box.Lat2, box.Lon2)
	if err != nil {
		return err
	}
	return s.GridBox(&GridBox{Corner1: c1, Corner2: c2})
}

// Point restricts rows to the cell containing a coordinate.
func (s *Set) Point(p *LatLon) error {
	if p == nil {
		return nil
	}
	id, err := grid.CellOfLatLon(p.Lat, p.Lon)
	if err != nil {
		return err
	}
	s.Priogrid([]int64{id})
	return nil
}

// Month range defaults for a missing bound.
var (
	EarliestDate = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	LatestDate   = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// MonthID returns the month index of t: January 1980 is 1.
func MonthID(t time.Time) int64 {
	return int64(t.Year()-1980)*12 + int64(t.Month())
}

// Months restricts rows to the inclusive month range between two dates, in
// either order. A nil bound defaults to EarliestDate or LatestDate; two nil
// bounds register nothing.
func (s *Set) Months(start, end *time.Time) {
	if start == nil && end == nil {
		return
	}
	from, to := EarliestDate, LatestDate
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	first, last := MonthID(from), MonthID(to)
	if first > last {
		first, last = last, first
	}
	ids := make([]int64, 0, last-first+1)
	for m := first; m <= last; m++ {
		ids = append(ids, m)
	}
	s.add(InSet{Column: schema.TimeID, Values: ids})
}
