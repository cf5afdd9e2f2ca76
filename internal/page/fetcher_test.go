package page

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forecastdb/internal/catalog"
	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/metrics"
	"github.com/roach88/forecastdb/internal/schema"
	fixture "github.com/roach88/forecastdb/internal/testutil"
)

func openRun(t *testing.T, id string) *catalog.Run {
	t.Helper()
	c, err := catalog.Open(context.Background(), fixture.NewStore(t))
	require.NoError(t, err)
	r, err := c.GetRun(id)
	require.NoError(t, err)
	return r
}

func newFetcher(t *testing.T, opts Options) *Fetcher {
	t.Helper()
	f, err := New(openRun(t, "r1"), opts)
	require.NoError(t, err)
	require.NoError(t, f.Init(context.Background()))
	return f
}

// keys projects the (row id, month id) pair of every row.
func keys(t *testing.T, rows []Row, rowID string) [][2]int64 {
	t.Helper()
	out := make([][2]int64, 0, len(rows))
	for _, r := range rows {
		id, ok := r.Get(rowID)
		require.True(t, ok)
		month, ok := r.Get(schema.TimeID)
		require.True(t, ok)
		out = append(out, [2]int64{id.(int64), month.(int64)})
	}
	return out
}

func decimalString(t *testing.T, r Row, col string) string {
	t.Helper()
	v, ok := r.Get(col)
	require.True(t, ok, col)
	d, ok := v.(decimal.Decimal)
	require.True(t, ok, "%s is %T", col, v)
	return d.String()
}

func TestFetcher_NotInitialized(t *testing.T) {
	f, err := New(openRun(t, "r1"), Options{LOA: schema.CountryMonth, Models: []string{"m1"}})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.Fetch(ctx, 1)
	assert.True(t, errs.IsNotInitialized(err))

	_, _, err = f.TotalCounts(ctx)
	assert.True(t, errs.IsNotInitialized(err))

	_, err = f.Columns(ctx)
	assert.True(t, errs.IsNotInitialized(err))
}

func TestFetcher_InitMissingTable(t *testing.T) {
	// r2 is registered but has no physical table.
	f, err := New(openRun(t, "r2"), Options{LOA: schema.CountryMonth})
	require.NoError(t, err)

	err = f.Init(context.Background())
	assert.True(t, errs.IsNotFound(err))
}

func TestFetcher_Defaults(t *testing.T) {
	f := newFetcher(t, Options{LOA: schema.GridMonth})

	assert.Equal(t, DefaultPageSize, f.PageSize())
	assert.Equal(t, "r1_pgm", f.Table())
	assert.NotEmpty(t, f.ID())
	assert.Equal(t, uint64(0), f.Offset(-3))
	assert.Equal(t, uint64(0), f.Offset(1))
	assert.Equal(t, uint64(2000), f.Offset(3))
}

func TestFetcher_TotalCountsUnfiltered(t *testing.T) {
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m1"}, PageSize: 4})
	counts := metrics.QueriesTotal.WithLabelValues("page_count", "ok")
	before := testutil.ToFloat64(counts)

	for i := 0; i < 3; i++ {
		rows, pages, err := f.TotalCounts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(6), rows)
		assert.Equal(t, int64(2), pages)
	}

	assert.Equal(t, before, testutil.ToFloat64(counts), "unfiltered counts must come from the registry")
}

func TestFetcher_TotalCountsFiltered(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m1"}, PageSize: 2})
	require.NoError(t, f.Filters().GW(ctx, []int64{2}))

	counts := metrics.QueriesTotal.WithLabelValues("page_count", "ok")
	for i := 1; i <= 3; i++ {
		before := testutil.ToFloat64(counts)

		rows, pages, err := f.TotalCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rows)
		assert.Equal(t, int64(2), pages)

		assert.Equal(t, before+1, testutil.ToFloat64(counts), "call %d must issue exactly one count", i)
	}
}

func TestFetcher_FetchGWExample(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m1"}, PageSize: 2})
	require.NoError(t, f.Filters().GW(ctx, []int64{2}))

	rows, err := f.Fetch(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, [][2]int64{{fixture.USA, fixture.Jan2020}, {fixture.USA, fixture.Feb2020}}, keys(t, rows, schema.CountryID))
	assert.Equal(t, []string{
		"country_id", "month_id", "name", "gwcode", "isoab", "year", "month", "sc_m1",
	}, rows[0].Columns)

	name, _ := rows[0].Get("name")
	assert.Equal(t, "United States", name)
	assert.Equal(t, "0.6543", decimalString(t, rows[0], "sc_m1"))
	assert.Equal(t, "0.1235", decimalString(t, rows[1], "sc_m1"))
}

func TestFetcher_OrderingAcrossPages(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m1"}, PageSize: 4})

	first, err := f.Fetch(ctx, 1)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, 2)
	require.NoError(t, err)
	third, err := f.Fetch(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, [][2]int64{
		{fixture.NOR, fixture.Jan2020},
		{fixture.EGY, fixture.Jan2020},
		{fixture.USA, fixture.Jan2020},
		{fixture.NOR, fixture.Feb2020},
	}, keys(t, first, schema.CountryID))
	assert.Equal(t, [][2]int64{
		{fixture.EGY, fixture.Feb2020},
		{fixture.USA, fixture.Feb2020},
	}, keys(t, second, schema.CountryID))
	assert.NotNil(t, third)
	assert.Empty(t, third)
}

func TestFetcher_PageClampAndRepeatability(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(t, Options{LOA: schema.GridMonth, Models: []string{"pg_ens", "pgm1"}, PageSize: 3})

	one, err := f.Fetch(ctx, 1)
	require.NoError(t, err)
	zero, err := f.Fetch(ctx, 0)
	require.NoError(t, err)
	negative, err := f.Fetch(ctx, -7)
	require.NoError(t, err)
	again, err := f.Fetch(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, one, zero)
	assert.Equal(t, one, negative)
	assert.Equal(t, one, again)
	assert.Equal(t, [][2]int64{{72201, 481}, {72202, 481}, {72921, 481}}, keys(t, one, schema.PriogridID))
}

func TestFetcher_GridFilters(t *testing.T) {
	ctx := context.Background()

	t.Run("country filter maps to cells", func(t *testing.T) {
		f := newFetcher(t, Options{LOA: schema.GridMonth, Models: []string{"pgm1"}, PageSize: 10})
		require.NoError(t, f.Filters().ISO(ctx, []string{"nor"}))

		rows, err := f.Fetch(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, [][2]int64{{72921, 481}, {72922, 481}, {72921, 482}, {72922, 482}}, keys(t, rows, schema.PriogridID))
	})

	t.Run("cells and months combine", func(t *testing.T) {
		f := newFetcher(t, Options{LOA: schema.GridMonth, Models: []string{"pgm1"}, PageSize: 10})
		f.Filters().Priogrid([]int64{72201, 72922})
		feb := time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC)
		f.Filters().Months(&feb, &feb)

		rows, err := f.Fetch(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, [][2]int64{{72201, 482}, {72922, 482}}, keys(t, rows, schema.PriogridID))
		assert.Equal(t, "0.05", decimalString(t, rows[0], "sc_pgm1"))
	})

	t.Run("cells map to countries on country tables", func(t *testing.T) {
		f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m2"}, PageSize: 10})
		f.Filters().Priogrid([]int64{72202})

		rows, err := f.Fetch(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, [][2]int64{{fixture.USA, fixture.Jan2020}, {fixture.USA, fixture.Feb2020}}, keys(t, rows, schema.CountryID))
	})
}

func TestFetcher_DecimalValues(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m1", "m2"}, PageSize: 10})
	f.Filters().CountryIDs([]int64{fixture.NOR, fixture.EGY})
	jan := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Filters().Months(&jan, &jan)

	rows, err := f.Fetch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Norway, January.
	assert.Equal(t, "0", decimalString(t, rows[0], "sc_m1"))
	assert.Equal(t, "3", decimalString(t, rows[0], "m2"))

	// Egypt, January: m2 is NULL.
	assert.Equal(t, "5.5556", decimalString(t, rows[1], "sc_m1"))
	m2, ok := rows[1].Get("m2")
	require.True(t, ok)
	assert.Nil(t, m2)
}

func TestFetcher_Components(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"m1", "m2"}, PageSize: 1, Components: true})

	cols, err := f.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"country_id", "month_id", "name", "gwcode", "isoab", "year", "month",
		"sc_m1", "m2", "sc_m1_c1", "sc_m1_c2",
	}, cols)

	rows, err := f.Fetch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, cols, rows[0].Columns)
	assert.Equal(t, "0.5", decimalString(t, rows[0], "sc_m1_c1"))
}

func TestFetcher_UnknownColumn(t *testing.T) {
	// other_sb is a known model but has no column in r1_cm.
	f := newFetcher(t, Options{LOA: schema.CountryMonth, Models: []string{"other_sb"}})

	_, err := f.Fetch(context.Background(), 1)
	assert.True(t, errs.IsNotFound(err))
}

func TestFetcher_RowsFetchedMetric(t *testing.T) {
	f := newFetcher(t, Options{LOA: schema.GridMonth, Models: []string{"pgm1"}, PageSize: 5})
	fetched := metrics.RowsFetched.WithLabelValues("pgm")
	before := testutil.ToFloat64(fetched)

	rows, err := f.Fetch(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, before+float64(len(rows)), testutil.ToFloat64(fetched))
}

func TestRow_MarshalJSON(t *testing.T) {
	row := Row{
		Columns: []string{"pg_id", "month_id", "name", "sc_m1", "m2"},
		Values:  []any{int64(72201), int64(481), "cell", decimal.RequireFromString("0.1235"), nil},
	}

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"pg_id":72201,"month_id":481,"name":"cell","sc_m1":0.1235,"m2":null}`, string(out))

	_, ok := row.Get("missing")
	assert.False(t, ok)
}
