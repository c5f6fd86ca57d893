// Package test provides a sqlite-backed store for package tests. The SQLite
// driver is kept behaviorally equivalent to the PostgreSQL one, so tests
// exercised against it stay honest.
package test

import (
	"context"
	"fmt"
	"testing"

	"github.com/citypulse/pulse/internal/profile"
	"github.com/citypulse/pulse/store"
	"github.com/citypulse/pulse/store/db"
)

// NewTestingStore creates a migrated sqlite store under a per-test temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	testStore := store.New(dbDriver, p)
	if err := testStore.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	t.Cleanup(func() {
		if err := testStore.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})

	return testStore
}

func getTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	return &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		DSN:    fmt.Sprintf("%s/pulse_test.db", dir),
		Driver: "sqlite",
	}
}
