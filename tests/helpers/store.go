package helpers

import (
	"testing"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
)

// NewTestSQLiteStore opens an in-memory store that is closed with the test.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(repository.DriverCGO, ":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
