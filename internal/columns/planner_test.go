package columns

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/metrics"
	"github.com/roach88/forecastdb/internal/querysql"
	"github.com/roach88/forecastdb/internal/schema"
	fixture "github.com/roach88/forecastdb/internal/testutil"
)

func newPlanner(t *testing.T, loa schema.LOA) *Planner {
	t.Helper()
	layout := schema.LayoutOf(loa)
	p, err := NewPlanner(fixture.NewStore(t), layout, layout.TableName("r1"))
	require.NoError(t, err)
	return p
}

func names(cols []querysql.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func TestPlanner_IsDynasim(t *testing.T) {
	p := newPlanner(t, schema.CountryMonth)
	ctx := context.Background()

	testCases := []struct {
		model string
		want  bool
	}{
		{"m1", false},
		{"m2", true},
		{"ens_sb", true},
		{"a_ns", false},
	}
	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			got, err := p.IsDynasim(ctx, tc.model)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := p.IsDynasim(ctx, "no_such_model")
	assert.True(t, errs.IsAmbiguousOrMissing(err))
}

func TestPlanner_IsDynasimCached(t *testing.T) {
	p := newPlanner(t, schema.CountryMonth)
	ctx := context.Background()
	lookups := metrics.QueriesTotal.WithLabelValues("model_dynasim", "ok")

	_, err := p.IsDynasim(ctx, "m1")
	require.NoError(t, err)
	before := testutil.ToFloat64(lookups)

	for i := 0; i < 3; i++ {
		_, err := p.IsDynasim(ctx, "m1")
		require.NoError(t, err)
	}
	assert.Equal(t, before, testutil.ToFloat64(lookups))
}

func TestPlanner_Labels(t *testing.T) {
	p := newPlanner(t, schema.CountryMonth)

	labels, err := p.Labels(context.Background(), []string{"m2", "m1", "ens_sb"})
	require.NoError(t, err)

	// Prefixed models first, then dynasim models, each in input order.
	assert.Equal(t, []string{"sc_m1", "m2", "ens_sb"}, labels)
}

func TestPlanner_Base(t *testing.T) {
	ctx := context.Background()

	t.Run("country table carries descriptive columns", func(t *testing.T) {
		p := newPlanner(t, schema.CountryMonth)
		cols, err := p.Base(ctx, []string{"m1", "m2", "m1"})
		require.NoError(t, err)

		assert.Equal(t, []string{
			"country_id", "month_id", "name", "gwcode", "isoab", "year", "month",
			"sc_m1", "m2",
		}, names(cols))
		assert.False(t, cols[0].Numeric)
		assert.False(t, cols[6].Numeric)
		assert.True(t, cols[7].Numeric)
		assert.True(t, cols[8].Numeric)
	})

	t.Run("grid table has only identifiers", func(t *testing.T) {
		p := newPlanner(t, schema.GridMonth)
		cols, err := p.Base(ctx, []string{"pgm1", "pg_ens"})
		require.NoError(t, err)
		assert.Equal(t, []string{"pg_id", "month_id", "sc_pgm1", "pg_ens"}, names(cols))
	})

	t.Run("no models", func(t *testing.T) {
		p := newPlanner(t, schema.GridMonth)
		cols, err := p.Base(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"pg_id", "month_id"}, names(cols))
	})
}

func TestPlanner_Components(t *testing.T) {
	p := newPlanner(t, schema.CountryMonth)
	ctx := context.Background()

	targets, err := p.Components(ctx, "sc_m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sc_m1_c1", "sc_m1_c2"}, targets)

	none, err := p.Components(ctx, "ens_sb")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPlanner_Augmented(t *testing.T) {
	ctx := context.Background()

	t.Run("components follow models and are deduplicated", func(t *testing.T) {
		p := newPlanner(t, schema.CountryMonth)
		cols, err := p.Augmented(ctx, []string{"m1", "m2"})
		require.NoError(t, err)

		assert.Equal(t, []string{
			"country_id", "month_id", "name", "gwcode", "isoab", "year", "month",
			"sc_m1", "m2", "sc_m1_c1", "sc_m1_c2",
		}, names(cols))
		for _, c := range cols[7:] {
			assert.True(t, c.Numeric, c.Name)
		}
	})

	t.Run("components are scoped to the table", func(t *testing.T) {
		p := newPlanner(t, schema.GridMonth)
		cols, err := p.Augmented(ctx, []string{"pgm1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"pg_id", "month_id", "sc_pgm1"}, names(cols))
	})
}
