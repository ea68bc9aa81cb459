// Package main is the entry point for the folio database migration tool.
// Migrations are embedded in the binary; the configured driver decides which set runs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/repository"

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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	flags := pflag.NewFlagSet(command, pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to config file")
	timeout := flags.Duration("timeout", time.Minute, "maximum time to wait for the database")
	_ = flags.Parse(os.Args[2:])

	switch command {
	case "version":
		fmt.Printf("folio Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		if err := withDatabase(*configPath, *timeout, migrateUp); err != nil {
			fail(err)
		}

	case "status":
		if err := withDatabase(*configPath, *timeout, status); err != nil {
			fail(err)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// withDatabase opens the configured database, runs fn and closes it.
func withDatabase(configPath string, timeout time.Duration, fn func(context.Context, *config.Config, repository.Database) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := repository.NewFactory(cfg.Database, logger).Open(ctx)
	if err != nil {
		return err
	}
	defer store.Database.Close()

	return fn(ctx, cfg, store.Database)
}

func migrateUp(ctx context.Context, cfg *config.Config, db repository.Database) error {
	before, err := db.Version(ctx)
	if err != nil {
		return err
	}

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	after, err := db.Version(ctx)
	if err != nil {
		return err
	}

	if after == before {
		fmt.Printf("%s schema is up to date (version %d)\n", cfg.Database.Driver, after)
		return nil
	}
	fmt.Printf("%s schema migrated from version %d to %d\n", cfg.Database.Driver, before, after)
	return nil
}

func status(ctx context.Context, cfg *config.Config, db repository.Database) error {
	version, err := db.Version(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Driver:  %s\n", cfg.Database.Driver)
	fmt.Printf("Version: %d\n", version)
	return nil
}

func printUsage() {
	fmt.Println(`folio Migration Tool

Usage:
  folio-migrate <command> [flags]

Commands:
  up          Apply all pending migrations
  status      Show the current schema version
  version     Print version information
  help        Show this help message

Flags:
  -c, --config    Path to config file (default: ./config.yaml, ./configs, /etc/folio)
      --timeout   Maximum time to wait for the database (default 1m)

Environment Variables:
  FOLIO_DATABASE_DRIVER   sqlite or postgres
  FOLIO_DATABASE_PATH     SQLite database file

Examples:
  folio-migrate up
  folio-migrate status --config /etc/folio/config.yaml`)
}
