// This file contains the driver registry used to build repositories from configuration.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/config"
)

// Repositories holds all repository instances.
type Repositories struct {
	User    UserRepository
	Post    PostRepository
	Project ProjectRepository
}

// Database is the connection handle behind a set of repositories.
// This interface satisfies handler.HealthChecker for the health endpoint.
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error

	// Migrate applies every embedded migration newer than the current version.
	Migrate(ctx context.Context) error

	// Version returns the highest applied migration version, or 0.
	Version(ctx context.Context) (int, error)
}

// Store is an opened database together with its repositories.
type Store struct {
	Repos    *Repositories
	Database Database
}

// OpenFunc opens a Store for one database driver.
type OpenFunc func(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]OpenFunc)
)

// Register makes a database driver available to Factory.Open.
// It is intended to be called from the init function of a driver package.
func Register(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if open == nil {
		panic("repository: Register open func is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("repository: Register called twice for driver " + name)
	}
	drivers[name] = open
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory creates repositories based on configuration.
type Factory struct {
	cfg    config.DatabaseConfig
	logger zerolog.Logger
}

// NewFactory creates a new repository factory.
func NewFactory(cfg config.DatabaseConfig, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Driver returns the configured database driver.
func (f *Factory) Driver() string {
	return f.cfg.Driver
}

// IsEmbedded returns true if using embedded database.
func (f *Factory) IsEmbedded() bool {
	return f.cfg.IsEmbedded()
}

// Open connects to the configured database and builds its repositories.
// The driver package must have been imported for its side effects.
func (f *Factory) Open(ctx context.Context) (*Store, error) {
	driversMu.RLock()
	open, ok := drivers[f.cfg.Driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown database driver %q (registered: %v)", f.cfg.Driver, Drivers())
	}

	store, err := open(ctx, f.cfg, f.logger.With().Str("driver", f.cfg.Driver).Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", f.cfg.Driver, err)
	}
	return store, nil
}
