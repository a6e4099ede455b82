//go:build integration

// Package integration tests the run catalog against real SQLite database
// files: schema migrations, persistence across close and reopen, and
// concurrent access through the WAL connection settings. Every test opens
// its own database under t.TempDir(), so there is no shared state to clean
// between tests and no external service to start.
//
// Run with: go test -tags integration ./tests/integration/
package integration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fredxotic/cord19-explorer/internal/catalog"
	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// newCatalogPath returns a database file path in a fresh temporary directory.
func newCatalogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "catalog.db")
}

// openMigratedStore opens the catalog at path with its schema applied and
// closes it when the test ends.
func openMigratedStore(t *testing.T, path string) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

// newCompletedRun builds a finished run fixture with the given row counts.
func newCompletedRun(totalRows, rowsWithYear int) *domain.AnalysisRun {
	run := domain.NewAnalysisRun("data/small_metadata.csv", 1000)
	run.TotalRows = totalRows
	run.RowsWithYear = rowsWithYear
	run.Complete(run.StartedAt.Add(3 * time.Second))
	return run
}
