// Package handler provides the HTTP API for folio.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/metrics"
	"github.com/prn-tf/folio/internal/ratelimit"
	"github.com/prn-tf/folio/internal/service"
)

// Router handles HTTP routing for the API.
type Router struct {
	health   *HealthHandler
	auth     *AuthHandler
	posts    *PostHandler
	projects *ProjectHandler

	tokens        *auth.TokenService
	limiter       *ratelimit.Limiter
	loginThrottle *ratelimit.LoginThrottle
	trustProxy    bool
	metrics       *metrics.Metrics
	metricsPath   string
	cors          config.CORSConfig
	logger        zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Credentials *service.CredentialService
	Posts       *service.PostService
	Projects    *service.ProjectService
	Tokens      *auth.TokenService

	// Database backs the health endpoint. Optional.
	Database HealthChecker

	// Limiter and LoginThrottle are optional; nil disables them.
	Limiter       *ratelimit.Limiter
	LoginThrottle *ratelimit.LoginThrottle

	// TrustProxy derives the client address from proxy headers. When false
	// the socket address is used, so clients cannot pick their own rate-limit key.
	TrustProxy bool

	// Metrics is optional; nil disables collection and the metrics route.
	Metrics     *metrics.Metrics
	MetricsPath string

	CORS        config.CORSConfig
	Environment string
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger.With().Str("component", "router").Logger()

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &Router{
		health:        NewHealthHandler(cfg.Database, cfg.Environment, cfg.Logger),
		auth:          NewAuthHandler(cfg.Credentials, cfg.Tokens, cfg.Metrics, cfg.MaxBodySize, cfg.Logger),
		posts:         NewPostHandler(cfg.Posts, cfg.MaxBodySize, cfg.Logger),
		projects:      NewProjectHandler(cfg.Projects, cfg.MaxBodySize, cfg.Logger),
		tokens:        cfg.Tokens,
		limiter:       cfg.Limiter,
		loginThrottle: cfg.LoginThrottle,
		trustProxy:    cfg.TrustProxy,
		metrics:       cfg.Metrics,
		metricsPath:   metricsPath,
		cors:          cfg.CORS,
		logger:        logger,
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if rt.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(rt.metrics.Middleware)
	r.Use(accessLog(rt.logger))
	r.Use(recoverer(rt.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cors.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           rt.cors.MaxAge,
	}))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, ErrRouteNotFound.HTTPStatus, map[string]string{"error": ErrRouteNotFound.Message})
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	if rt.metrics != nil {
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(rt.limiter.Middleware)
		}

		r.Get("/health", rt.health.Health)

		// Authentication
		r.Route("/auth", func(r chi.Router) {
			login := http.Handler(http.HandlerFunc(rt.auth.Login))
			if rt.loginThrottle != nil {
				login = rt.loginThrottle.Middleware(login)
			}
			r.Method(http.MethodPost, "/login", login)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(rt.tokens, rt.logger))
				r.Get("/me", rt.auth.Me)
				r.Post("/logout", rt.auth.Logout)
			})
		})

		// Public content
		r.Get("/projects", rt.projects.List)
		r.Get("/projects/{id}", rt.projects.Get)
		r.Get("/blog", rt.posts.Search)
		r.Get("/blog/{slug}", rt.posts.GetBySlug)

		// Administration
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(rt.tokens, domain.RoleAdmin, rt.logger))

			r.Post("/projects", rt.projects.Create)
			r.Put("/projects/{id}", rt.projects.Update)
			r.Delete("/projects/{id}", rt.projects.Delete)

			r.Get("/admin/posts", rt.posts.List)
			r.Post("/admin/posts", rt.posts.Create)
			r.Put("/admin/posts/{id}", rt.posts.Update)
			r.Delete("/admin/posts/{id}", rt.posts.Delete)
		})
	})

	return r
}
