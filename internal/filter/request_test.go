package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/forecastdb/internal/errs"
)

func TestApply_RegionFirst(t *testing.T) {
	ctx := context.Background()
	s := NewSet(cm, newFakeResolver())

	feb := &Date{time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)}
	err := s.Apply(ctx, Request{
		Region: "escwa",
		ISO:    []string{"egy"},
		From:   feb,
		To:     feb,
	})
	require.NoError(t, err)

	assert.Equal(t, []Predicate{
		InSet{Column: "country_id", Values: []int64{11, 12}},
		InSet{Column: "country_id", Values: []int64{11}},
		InSet{Column: "month_id", Values: []int64{482}},
	}, s.Predicates())
}

func TestApply_Zero(t *testing.T) {
	r := newFakeResolver()
	s := NewSet(pgm, r)

	require.NoError(t, s.Apply(context.Background(), Request{}))
	assert.Zero(t, s.Len())
	assert.Empty(t, r.isoSeen)
	assert.Empty(t, r.gwSeen)
}

func TestApply_Geometry(t *testing.T) {
	s := NewSet(pgm, newFakeResolver())
	err := s.Apply(context.Background(), Request{
		CountryIDs: []int64{7},
		Priogrid:   []int64{72201},
		Point:      &LatLon{Lat: 59.9, Lon: 10.7},
	})
	require.NoError(t, err)

	assert.Equal(t, []Predicate{
		Mapped{Column: "pg_id", Key: "country_id", Values: []int64{7}},
		InSet{Column: "pg_id", Values: []int64{72201}},
		InSet{Column: "pg_id", Values: []int64{mustCell(t, 299, 381)}},
	}, s.Predicates())
}

func TestApply_StopsAtFirstError(t *testing.T) {
	s := NewSet(pgm, newFakeResolver())
	err := s.Apply(context.Background(), Request{
		Priogrid: []int64{1},
		Box:      &LatLonBox{Lat1: 0, Lat2: 95, Lon1: 0, Lon2: 1},
		Point:    &LatLon{Lat: 0, Lon: 0},
	})
	assert.True(t, errs.IsOutOfBounds(err))
	assert.Equal(t, 1, s.Len())
}

func TestRequest_YAML(t *testing.T) {
	doc := `
region: escwa
gw: [2, 385]
grid_box: {corner1: 72201, corner2: 72922}
point: {lat: -39.75, lon: -79.75}
from: 2020-01-01
`
	var r Request
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))

	assert.Equal(t, "escwa", r.Region)
	assert.Equal(t, []int64{2, 385}, r.GW)
	assert.Equal(t, &GridBox{Corner1: 72201, Corner2: 72922}, r.GridBox)
	assert.Equal(t, &LatLon{Lat: -39.75, Lon: -79.75}, r.Point)
	require.NotNil(t, r.From)
	assert.Equal(t, int64(481), MonthID(r.From.Time))
	assert.Nil(t, r.To)
}

func TestRequest_YAMLDateForms(t *testing.T) {
	testCases := []struct {
		doc  string
		want int64
	}{
		{"from: 2020-02-01", 482},
		{"from: 2020-02", 482},
		{"from: \"2020\"", 481},
		{"from: 02/15/2020", 482},
		{"from: feb 1, 2020", 482},
		{"from: 2020-02-01T00:00:00Z", 482},
	}
	for _, tc := range testCases {
		var r Request
		require.NoError(t, yaml.Unmarshal([]byte(tc.doc), &r), tc.doc)
		require.NotNil(t, r.From, tc.doc)
		assert.Equal(t, tc.want, MonthID(r.From.Time), tc.doc)
	}

	var r Request
	err := yaml.Unmarshal([]byte("from: 2020-13-45"), &r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")

	err = yaml.Unmarshal([]byte("to: [2020]"), &r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a scalar")
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("01/02/2020")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("not a date")
	assert.Error(t, err)
}
