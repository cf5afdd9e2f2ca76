package store

import (
	"context"
	"strings"
)

// CountriesByISO resolves ISO-3 alpha codes to country ids.
// Codes are matched as given; callers normalize them first.
func (s *Store) CountriesByISO(ctx context.Context, iso []string) ([]int64, error) {
	if len(iso) == 0 {
		return []int64{}, nil
	}
	pred, err := s.dialect.AnyOf("isoab", iso)
	if err != nil {
		return nil, err
	}
	return Column[int64](ctx, s, "countries_by_iso", s.SQL().
		Select("id").Distinct().
		From(s.tables.Country()).
		Where(pred).
		OrderBy("id"))
}

// CountriesByGW resolves Gleditsch-Ward numeric codes to country ids.
func (s *Store) CountriesByGW(ctx context.Context, gw []int64) ([]int64, error) {
	if len(gw) == 0 {
		return []int64{}, nil
	}
	pred, err := s.dialect.AnyOf("gwcode", gw)
	if err != nil {
		return nil, err
	}
	return Column[int64](ctx, s, "countries_by_gw", s.SQL().
		Select("id").Distinct().
		From(s.tables.Country()).
		Where(pred).
		OrderBy("id"))
}

// TableColumns returns the column names of a wide table in ordinal order.
// A missing table yields an empty slice.
func (s *Store) TableColumns(ctx context.Context, table string) ([]string, error) {
	cols, err := Column[string](ctx, s, "table_columns", s.dialect.TableColumns(s.tables.Data, table))
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		cols[i] = strings.ToLower(c)
	}
	return cols, nil
}
