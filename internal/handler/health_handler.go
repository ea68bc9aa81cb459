package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker reports whether a dependency is usable.
// repository.Database satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db          HealthChecker
	environment string
	started     time.Time
	logger      zerolog.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil.
func NewHealthHandler(db HealthChecker, environment string, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		environment: environment,
		started:     time.Now(),
		logger:      logger.With().Str("handler", "health").Logger(),
	}
}

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Uptime      float64   `json:"uptime"`
}

// Health reports OK with the process uptime in seconds, or 503 when the
// database does not answer.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC(),
		Environment: h.environment,
		Uptime:      time.Since(h.started).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Health(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("database health check failed")
			resp.Status = "UNAVAILABLE"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
