package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/prn-tf/folio/internal/metrics"
)

// LoginMessage is the body returned when a client is throttled on login.
const LoginMessage = "Too many login attempts, please try again later."

// idleTTL is how long an unused per-IP bucket is kept.
const idleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginThrottle is a per-IP token bucket for the login endpoint.
type LoginThrottle struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	metrics   *metrics.Metrics
	now       func() time.Time
	lastSweep time.Time
}

// NewLoginThrottle allows perMinute attempts per IP with the given burst.
// m may be nil.
func NewLoginThrottle(perMinute float64, burst int, m *metrics.Metrics) *LoginThrottle {
	return &LoginThrottle{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		metrics:  m,
		now:      time.Now,
	}
}

// Allow consumes one token for ip.
func (t *LoginThrottle) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) > idleTTL {
		for key, v := range t.visitors {
			if now.Sub(v.lastSeen) > idleTTL {
				delete(t.visitors, key)
			}
		}
		t.lastSweep = now
	}

	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// Middleware rejects requests from IPs that have exhausted their bucket.
func (t *LoginThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(ClientIP(r)) {
			t.metrics.RecordLogin(metrics.LoginThrottled)
			retry := time.Minute
			if t.limit > 0 {
				retry = time.Duration(float64(time.Second) / float64(t.limit))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(max(1, retry.Seconds()))))
			writeError(w, LoginMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}
