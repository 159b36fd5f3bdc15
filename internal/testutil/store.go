// Package testutil provides fixtures shared by hostelctl tests: a scratch
// SQLite store and a fake PG management API.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hostelctl/hostelctl/internal/storage"
)

// NewStore opens a migrated store in a temporary directory. It is closed
// when the test ends.
func NewStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "hostelctl.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})
	return store
}
