// Package breaker wraps repositories with a circuit breaker so a failing
// database is not hammered by every request while it recovers.
package breaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/repository"
)

// ErrUnavailable is returned without touching storage while the circuit is open.
var ErrUnavailable = errors.New("storage unavailable")

// Breaker guards calls into one backing store.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

// New creates a Breaker. The circuit opens after cfg.FailureThreshold
// consecutive failures and half-opens after cfg.Timeout.
func New(name string, cfg config.BreakerConfig, logger zerolog.Logger) *Breaker {
	b := &Breaker{
		logger: logger.With().Str("component", "breaker").Str("breaker", name).Logger(),
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return b
}

// isSuccessful reports whether err says anything about storage health.
// Lookups that miss, unique violations and caller cancellations are answers,
// not outages.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrDuplicate) ||
		errors.Is(err, context.Canceled)
}

// State returns the current circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return translate(err)
}

func call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.do(func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Wrap returns repos with every repository routed through b.
func Wrap(repos *repository.Repositories, b *Breaker) *repository.Repositories {
	return &repository.Repositories{
		User:    &userRepository{next: repos.User, b: b},
		Post:    &postRepository{next: repos.Post, b: b},
		Project: &projectRepository{next: repos.Project, b: b},
	}
}

// =============================================================================
// Users
// =============================================================================

type userRepository struct {
	next repository.UserRepository
	b    *Breaker
}

var _ repository.UserRepository = (*userRepository)(nil)

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.b.do(func() error { return r.next.Create(ctx, user) })
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return call(r.b, func() (*domain.User, error) { return r.next.GetByID(ctx, id) })
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return call(r.b, func() (*domain.User, error) { return r.next.GetByEmail(ctx, email) })
}

// =============================================================================
// Posts
// =============================================================================

type postRepository struct {
	next repository.PostRepository
	b    *Breaker
}

var _ repository.PostRepository = (*postRepository)(nil)

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.b.do(func() error { return r.next.Create(ctx, post) })
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return call(r.b, func() (*domain.Post, error) { return r.next.GetByID(ctx, id) })
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	return call(r.b, func() (*domain.Post, error) { return r.next.GetBySlug(ctx, slug) })
}

func (r *postRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return call(r.b, func() (bool, error) { return r.next.ExistsBySlug(ctx, slug) })
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	return r.b.do(func() error { return r.next.Update(ctx, post) })
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.b.do(func() error { return r.next.Delete(ctx, id) })
}

func (r *postRepository) List(ctx context.Context, opts repository.PostListOptions) (*repository.ListResult[domain.Post], error) {
	return call(r.b, func() (*repository.ListResult[domain.Post], error) { return r.next.List(ctx, opts) })
}

// =============================================================================
// Projects
// =============================================================================

type projectRepository struct {
	next repository.ProjectRepository
	b    *Breaker
}

var _ repository.ProjectRepository = (*projectRepository)(nil)

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.b.do(func() error { return r.next.Create(ctx, project) })
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return call(r.b, func() (*domain.Project, error) { return r.next.GetByID(ctx, id) })
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.b.do(func() error { return r.next.Update(ctx, project) })
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.b.do(func() error { return r.next.Delete(ctx, id) })
}

func (r *projectRepository) List(ctx context.Context, featuredOnly bool) ([]*domain.Project, error) {
	return call(r.b, func() ([]*domain.Project, error) { return r.next.List(ctx, featuredOnly) })
}
