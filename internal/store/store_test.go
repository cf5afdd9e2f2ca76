package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forecastdb/internal/errs"
	"github.com/roach88/forecastdb/internal/metrics"
)

// createTestStore seeds a small SQLite database and opens it read-only.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE country (id INTEGER PRIMARY KEY, isoab TEXT, gwcode INTEGER);
		INSERT INTO country VALUES (1, 'USA', 2), (42, 'NOR', 385), (43, 'SWE', 380), (44, 'NO2', 385);
		CREATE TABLE r1_cm (country_id INTEGER, month_id INTEGER, Name TEXT, m1 REAL);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(context.Background(), Config{Driver: "sqlite3", DSN: path})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpen_ReadOnly(t *testing.T) {
	s := createTestStore(t)

	_, err := s.DB().Exec("INSERT INTO country VALUES (99, 'XXX', 999)")
	assert.Error(t, err, "store must reject writes")
}

func TestCountriesByISO(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ids, err := s.CountriesByISO(ctx, []string{"NOR", "SWE", "ZZZ"})
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 43}, ids)

	ids, err = s.CountriesByISO(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestCountriesByGW(t *testing.T) {
	s := createTestStore(t)

	ids, err := s.CountriesByGW(context.Background(), []int64{385, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42, 44}, ids)
}

func TestTableColumns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	cols, err := s.TableColumns(ctx, "r1_cm")
	require.NoError(t, err)
	assert.Equal(t, []string{"country_id", "month_id", "name", "m1"}, cols)

	cols, err = s.TableColumns(ctx, "missing_cm")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestOne(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	iso, err := One[string](ctx, s, "one_iso", s.SQL().Select("isoab").From("country").Where("id = ?", 42))
	require.NoError(t, err)
	assert.Equal(t, "NOR", iso)

	_, err = One[string](ctx, s, "one_iso", s.SQL().Select("isoab").From("country").Where("gwcode = ?", 385))
	assert.True(t, errs.IsAmbiguousOrMissing(err))

	_, err = One[string](ctx, s, "one_iso", s.SQL().Select("isoab").From("country").Where("id = ?", 7))
	assert.True(t, errs.IsAmbiguousOrMissing(err))
}

func TestQuery_StorageFailure(t *testing.T) {
	s := createTestStore(t)
	failed := metrics.QueriesTotal.WithLabelValues("bad_query", "error")
	before := testutil.ToFloat64(failed)

	_, err := s.Query(context.Background(), "bad_query", "SELECT nope FROM nowhere")
	assert.True(t, errs.IsStorage(err))
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestDialect_AnyOf(t *testing.T) {
	t.Run("postgres uses one array parameter", func(t *testing.T) {
		pred, err := Postgres.AnyOf("pg_id", []int64{1, 2, 3})
		require.NoError(t, err)

		query, args, err := pred.ToSql()
		require.NoError(t, err)
		assert.Equal(t, "pg_id = ANY(?)", query)
		assert.Equal(t, []any{[]int64{1, 2, 3}}, args)
	})

	t.Run("sqlite uses one json parameter", func(t *testing.T) {
		pred, err := SQLite.AnyOf("isoab", []string{"NOR"})
		require.NoError(t, err)

		query, args, err := pred.ToSql()
		require.NoError(t, err)
		assert.Equal(t, "isoab IN (SELECT value FROM json_each(?))", query)
		assert.Equal(t, []any{`["NOR"]`}, args)
	})

	t.Run("rejects other types", func(t *testing.T) {
		_, err := SQLite.AnyOf("x", []float64{1})
		assert.Error(t, err)
	})
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)
}

func TestDriverName(t *testing.T) {
	testCases := []struct {
		driver string
		want   string
	}{
		{"pgx", "pgx"},
		{"postgres", "pgx"},
		{"sqlite3", "sqlite3"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, DriverName(tc.driver), tc.driver)
	}
}

func TestOpen_PostgresAlias(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Nothing listens on port 1: the driver resolves and the ping fails.
	_, err := Open(ctx, Config{Driver: "postgres", DSN: "postgres://forecastdb@127.0.0.1:1/forecastdb?connect_timeout=2"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "unknown driver")
	assert.True(t, errs.IsStorage(err), "want a connect failure, got %v", err)
}
