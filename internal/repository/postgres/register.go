package postgres

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/repository"
)

func init() {
	repository.Register("postgres", Open)
}

// Open connects to PostgreSQL and builds the full repository set.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Store, error) {
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &repository.Store{
		Repos: &repository.Repositories{
			User:    NewUserRepository(db),
			Post:    NewPostRepository(db),
			Project: NewProjectRepository(db),
		},
		Database: db,
	}, nil
}
