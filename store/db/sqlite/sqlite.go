package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/citypulse/pulse/internal/profile"
	"github.com/citypulse/pulse/store"
)

// ============================================================================
// SQLITE SUPPORT (Development / Testing)
// ============================================================================
// SQLite has no vector type, so embeddings and tags are stored as JSON text
// and similarity search is a brute-force cosine scan over the zone/time
// candidate set, computed in process. Behavior matches the PostgreSQL driver
// so tests exercised against SQLite stay honest.
//
// Taste updates are serialized through a driver-level mutex plus a
// transaction; SQLite allows a single writer anyway.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile

	// tasteMu serializes read-modify-write taste updates. SQLite lacks the
	// upsert arithmetic the PostgreSQL driver leans on.
	tasteMu sync.Mutex
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Connect to the database with some sane settings:
	// - Disable foreign key constraints during migrations.
	// - Journal mode WAL for read concurrency.
	// - Busy timeout so writers queue instead of failing fast.
	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: db, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'item')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}
