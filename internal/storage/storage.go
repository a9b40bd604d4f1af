// Package storage defines the Storage interface, the load/save contract
// every persistence backend satisfies, and Open, which picks the backend
// named in the configuration.
//
// The entity store never talks to a backend directly. A caller loads a
// snapshot, restores the store from it, and saves a fresh snapshot after
// mutating. Swapping JSON for SQLite is a config change only.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/school-records/internal/config"
	"github.com/aanand-mishra/school-records/internal/storage/jsonfile"
	"github.com/aanand-mishra/school-records/internal/storage/sqlite"
	"github.com/aanand-mishra/school-records/internal/types"
)

// Storage is the persistence contract.
type Storage interface {
	// Load returns the stored snapshot. A backend with nothing stored yet
	// returns an empty snapshot. Failures are *types.PersistenceError.
	Load(ctx context.Context) (types.Snapshot, error)

	// Save replaces the stored snapshot. Either the whole snapshot is
	// committed or the previous one is left in place.
	Save(ctx context.Context, snap types.Snapshot) error

	// Close releases the backend's file or connection.
	Close() error
}

// Open returns the backend selected by cfg.Storage.Driver.
func Open(cfg *config.Config, log *slog.Logger) (Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		return jsonfile.New(cfg, log), nil
	case config.DriverSQLite:
		return sqlite.New(cfg, log)
	}
	return nil, fmt.Errorf("storage.Open: unknown driver %q", cfg.Storage.Driver)
}
