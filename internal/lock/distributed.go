package lock

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/repository"
)

// DistributedLocker implements Locker over a repository.DistributedLock
// (Redis in production). If the backend reports itself unavailable, the
// locker degrades to a process-local MemoryLocker and logs a warning, so
// a Redis outage narrows lock scope to one instance instead of failing writes.
type DistributedLocker struct {
	backend  repository.DistributedLock
	fallback *MemoryLocker
	logger   zerolog.Logger
}

// NewDistributedLocker wraps dl. fallback may be nil to disable degradation.
func NewDistributedLocker(dl repository.DistributedLock, fallback *MemoryLocker, logger zerolog.Logger) *DistributedLocker {
	return &DistributedLocker{
		backend:  dl,
		fallback: fallback,
		logger:   logger.With().Str("component", "lock").Logger(),
	}
}

// degrade reports whether err should be retried against the local fallback.
func (l *DistributedLocker) degrade(op, key string, err error) bool {
	if l.fallback == nil || !errors.Is(err, repository.ErrCacheUnavailable) {
		return false
	}
	l.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("distributed lock unavailable, using local lock")
	return true
}

// Acquire attempts to acquire a lock.
func (l *DistributedLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.backend.Acquire(ctx, key, ttl)
	if err != nil && l.degrade("acquire", key, err) {
		return l.fallback.Acquire(ctx, key, ttl)
	}
	return ok, err
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (l *DistributedLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return retryAcquire(ctx, l, key, ttl, maxRetries, retryDelay)
}

// Release releases a lock.
func (l *DistributedLocker) Release(ctx context.Context, key string) (bool, error) {
	if l.fallback != nil {
		if held, _ := l.fallback.IsHeld(ctx, key); held {
			return l.fallback.Release(ctx, key)
		}
	}
	return l.backend.Release(ctx, key)
}

// Extend extends the TTL of a held lock.
func (l *DistributedLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.fallback != nil {
		if held, _ := l.fallback.IsHeld(ctx, key); held {
			return l.fallback.Extend(ctx, key, ttl)
		}
	}
	return l.backend.Extend(ctx, key, ttl)
}

// IsHeld checks if the lock is currently held.
func (l *DistributedLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	held, err := l.backend.IsHeld(ctx, key)
	if err != nil && l.degrade("is_held", key, err) {
		return l.fallback.IsHeld(ctx, key)
	}
	return held, err
}

// Ensure DistributedLocker implements Locker.
var _ Locker = (*DistributedLocker)(nil)
