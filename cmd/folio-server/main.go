// Package main is the entry point for the folio content server.
// folio serves a personal site's blog and project catalogue over a JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/cache/memory"
	"github.com/prn-tf/folio/internal/cache/redis"
	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/handler"
	"github.com/prn-tf/folio/internal/lock"
	"github.com/prn-tf/folio/internal/metrics"
	"github.com/prn-tf/folio/internal/ratelimit"
	"github.com/prn-tf/folio/internal/repository"
	"github.com/prn-tf/folio/internal/repository/breaker"
	"github.com/prn-tf/folio/internal/service"

	// Database drivers
	_ "github.com/prn-tf/folio/internal/repository/postgres"
	_ "github.com/prn-tf/folio/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Logging, cfg.IsProduction())
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("environment", cfg.Server.Environment).
		Msg("Starting folio server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("Server stopped")
}

// newLogger builds the process logger from settings. Production always logs JSON.
func newLogger(cfg config.LoggingConfig, production bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	}

	if cfg.Format == "console" && !production {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database
	factory := repository.NewFactory(cfg.Database, logger)
	logger.Info().Str("driver", factory.Driver()).Bool("embedded", factory.IsEmbedded()).Msg("Opening database")

	store, err := factory.Open(ctx)
	if err != nil {
		return err
	}
	defer store.Database.Close()

	if err := store.Database.Migrate(ctx); err != nil {
		return err
	}

	// Cache and locks
	memLocker := lock.NewMemoryLocker()
	defer memLocker.Stop()

	var (
		cache  repository.Cache
		locker lock.Locker = memLocker
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		cache = redis.NewCache(client, "folio:")
		locker = lock.NewDistributedLocker(redis.NewLock(client), memLocker, logger)
	} else {
		memCache := memory.NewCache()
		defer memCache.Stop()
		cache = memCache
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Repositories
	repos := store.Repos
	if cfg.Breaker.Enabled {
		repos = breaker.Wrap(repos, breaker.New("database", cfg.Breaker, logger))
	}

	// Services
	credentials := service.NewCredentialService(repos.User, locker, cfg.Auth.BcryptCost, logger)
	posts := service.NewPostService(repos.Post, locker, m, logger)
	projects := service.NewProjectService(repos.Project, logger)

	if _, err := credentials.Bootstrap(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	logger.Info().Dur("token_ttl", tokens.TTL()).Str("issuer", cfg.Auth.Issuer).Msg("Token service ready")

	// HTTP
	routerCfg := handler.RouterConfig{
		Credentials: credentials,
		Posts:       posts,
		Projects:    projects,
		Tokens:      tokens,
		Database:    store.Database,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		CORS:        cfg.CORS,
		Environment: cfg.Server.Environment,
		MaxBodySize: cfg.Server.MaxBodySize,
		TrustProxy:  cfg.Server.TrustProxy,
		Logger:      logger,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.Limiter = ratelimit.New(cache, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests, m, logger)
		routerCfg.LoginThrottle = ratelimit.NewLoginThrottle(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, m)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(routerCfg).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
