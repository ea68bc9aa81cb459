package lock

import (
	"context"
	"sync"
	"time"
)

// NoOpLocker is a locker that always succeeds.
// It records the keys it was asked to acquire so tests can assert on them.
type NoOpLocker struct {
	mu       sync.Mutex
	acquired []string
}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Acquired returns the keys passed to Acquire, in call order.
func (n *NoOpLocker) Acquired() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.acquired...)
}

// Acquire always returns true (lock acquired).
func (n *NoOpLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	n.mu.Lock()
	n.acquired = append(n.acquired, key)
	n.mu.Unlock()
	return true, ctx.Err()
}

// AcquireWithRetry always returns true (lock acquired).
func (n *NoOpLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return n.Acquire(ctx, key, ttl)
}

// Release always returns true (lock released).
func (n *NoOpLocker) Release(ctx context.Context, key string) (bool, error) {
	return true, ctx.Err()
}

// Extend always returns true (lock extended).
func (n *NoOpLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, ctx.Err()
}

// IsHeld always returns false (no lock held in no-op mode).
func (n *NoOpLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	return false, ctx.Err()
}

// Ensure NoOpLocker implements Locker.
var _ Locker = (*NoOpLocker)(nil)
