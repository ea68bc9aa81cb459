package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prn-tf/folio/internal/repository"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache()
	c.now = clock.now
	t.Cleanup(c.Stop)
	return c, clock
}

func TestCache_GetSetDelete(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, repository.ErrCacheMiss) {
		t.Fatalf("Get(missing) error = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get(k) = %q, %v; want \"v\", nil", got, err)
	}

	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	if string(again) != "v" {
		t.Errorf("cached value mutated through returned slice: %q", again)
	}

	clock.advance(time.Minute)
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("Exists(k) = true after expiry")
	}

	_ = c.Set(ctx, "forever", []byte("1"), 0)
	if ttl, _ := c.TTL(ctx, "forever"); ttl != -2 {
		t.Errorf("TTL(forever) = %v, want -2", ttl)
	}

	_ = c.Delete(ctx, "forever")
	if ttl, _ := c.TTL(ctx, "forever"); ttl != -1 {
		t.Errorf("TTL(deleted) = %v, want -1", ttl)
	}
}

func TestCache_IncrementKeepsFirstExpiry(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.Increment(ctx, "counter", 1, 10*time.Second)
		if err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if n != i {
			t.Errorf("Increment() = %d, want %d", n, i)
		}
		clock.advance(3 * time.Second)
	}

	ttl, _ := c.TTL(ctx, "counter")
	if ttl != time.Second {
		t.Errorf("TTL(counter) = %v, want 1s (expiry must not slide)", ttl)
	}

	clock.advance(time.Second)
	n, _ := c.Increment(ctx, "counter", 1, 10*time.Second)
	if n != 1 {
		t.Errorf("Increment() after expiry = %d, want 1", n)
	}
}

func TestCache_IncrementNonInteger(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("abc"), 0)
	if _, err := c.Increment(ctx, "k", 1, 0); err == nil {
		t.Error("Increment() on non-integer value should fail")
	}
}
