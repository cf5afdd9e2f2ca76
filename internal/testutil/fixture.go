// Package testutil builds the seeded SQLite database used by storage-backed
// tests across packages.
//
// The fixture holds one complete run ("R1", both levels of analysis), a
// second run ("r2") whose models must never leak into R1, and a run ("bad")
// whose registry rows violate the one-distinct-value invariant.
package testutil

import (
	"context"
	"database/sql"
	_ "embed"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/forecastdb/internal/schema"
	"github.com/roach88/forecastdb/internal/store"
)

//go:embed fixture.sql
var fixtureSQL string

// Fixture ids used by assertions.
const (
	USA = int64(42)
	NOR = int64(7)
	EGY = int64(11)

	// Month ids for January and February 2020.
	Jan2020 = int64(481)
	Feb2020 = int64(482)
)

// FixturePath writes the seeded database into a temp dir and returns its path.
func FixturePath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(fixtureSQL); err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return path
}

// NewStore seeds a fixture database and opens a read-only store on it.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		Driver: "sqlite3",
		DSN:    FixturePath(t),
		Tables: schema.Tables{},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}
