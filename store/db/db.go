package db

import (
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/internal/profile"
	"github.com/citypulse/pulse/store"
	"github.com/citypulse/pulse/store/db/postgres"
	"github.com/citypulse/pulse/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// This project supports only PostgreSQL and SQLite databases.
//
// PostgreSQL: Full support for production use. Vector search runs inside the
// database via the pgvector extension.
// SQLite: Development and testing. Vector search is a brute-force scan over
// the zone/time candidate set, computed in process.
//
// When adding new features:
// - Implement fully for PostgreSQL
// - Keep the SQLite implementation behaviorally equivalent so tests stay honest
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
