package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/repository"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, isNoRows(pgx.ErrNoRows))
	assert.True(t, isNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, isNoRows(errors.New("no rows")))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}

func TestMigrationVersion(t *testing.T) {
	v, err := migrationVersion("migrations/000001_init.up.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = migrationVersion("migrations/init.sql")
	assert.Error(t, err)
}

// newLiveDB connects to the server at FOLIO_TEST_POSTGRES_HOST.
// Tests using it are skipped when the variable is unset.
func newLiveDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("FOLIO_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("FOLIO_TEST_POSTGRES_HOST not set")
	}

	cfg := config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            5432,
		User:            "folio",
		Password:        os.Getenv("FOLIO_TEST_POSTGRES_PASSWORD"),
		Database:        "folio_test",
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	}

	ctx := context.Background()
	db, err := NewDB(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE posts, projects, users`)
	require.NoError(t, err)
	return db
}

func TestPostRepository_Live(t *testing.T) {
	db := newLiveDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	post := &domain.Post{
		ID:        uuid.New(),
		Slug:      "hello-world",
		Title:     "Hello World",
		Excerpt:   "e",
		Content:   "c",
		ReadTime:  "1 min",
		Status:    domain.PostStatusDraft,
		Author:    "admin@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, post))

	clone := *post
	clone.ID = uuid.New()
	assert.ErrorIs(t, repo.Create(ctx, &clone), repository.ErrDuplicate)

	post.Publish(now)
	require.NoError(t, repo.Update(ctx, post))

	res, err := repo.List(ctx, repository.PostListOptions{
		Status:  domain.PostStatusPublished,
		Search:  "HELLO",
		OrderBy: repository.OrderByPublishedAt,
		Limit:   10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	require.NoError(t, repo.Delete(ctx, post.ID))
	assert.ErrorIs(t, repo.Delete(ctx, post.ID), repository.ErrNotFound)
}
