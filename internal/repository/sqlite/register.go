package sqlite

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/repository"
)

func init() {
	repository.Register("sqlite", Open)
}

// Open connects to SQLite and builds the full repository set.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Store, error) {
	db, err := NewDB(ctx, FromDatabaseConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore builds the repository set over an open database.
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Repos: &repository.Repositories{
			User:    NewUserRepository(db),
			Post:    NewPostRepository(db),
			Project: NewProjectRepository(db),
		},
		Database: db,
	}
}
