// Package ratelimit throttles API clients by IP.
//
// Limiter is a fixed-window counter stored in a repository.Cache, so every
// instance sharing a Redis cache shares the same budget. LoginThrottle is a
// per-process token bucket that slows password guessing.
package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/metrics"
	"github.com/prn-tf/folio/internal/repository"
)

// Message is the body returned with 429 responses from Limiter.
const Message = "Too many requests from this IP, please try again later."

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the client should wait, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return time.Duration(math.Ceil(wait.Seconds())) * time.Second
}

// Limiter allows max requests per client within each fixed window.
type Limiter struct {
	cache   repository.Cache
	window  time.Duration
	max     int
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a Limiter. m may be nil.
func New(cache repository.Cache, window time.Duration, max int, m *metrics.Metrics, logger zerolog.Logger) *Limiter {
	return &Limiter{
		cache:   cache,
		window:  window,
		max:     max,
		metrics: m,
		now:     time.Now,
		logger:  logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow counts one request from clientID and reports whether it is within budget.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.window)
	key := repository.CacheKey{}.RateLimit(clientID, start.Unix())

	count, err := l.cache.Increment(ctx, key, 1, l.window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:   count <= int64(l.max),
		Limit:     l.max,
		Remaining: int(max(0, int64(l.max)-count)),
		ResetAt:   start.Add(l.window),
	}, nil
}

// Middleware enforces the limit per client IP. If the counter store fails
// the request is let through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		decision, err := l.Allow(r.Context(), ip)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			l.metrics.RateLimited()
			l.logger.Debug().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")

			retry := decision.RetryAfter(l.now())
			h.Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			writeError(w, Message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the request's client address without a port.
// Proxy headers are only reflected when chi's RealIP middleware ran first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
