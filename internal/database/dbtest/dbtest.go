// Package dbtest opens throwaway SQLite stores with the real migrations applied.
package dbtest

import (
	"path/filepath"
	"testing"

	"habbo-tracker/internal/config"
	"habbo-tracker/internal/database"

	"github.com/rs/zerolog"
)

func NewSQLite(t testing.TB) *database.Store {
	t.Helper()

	store, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "habbo.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
