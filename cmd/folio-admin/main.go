// Package main is the entry point for the folio admin CLI.
// This tool provides operator commands for secrets, password hashes and tokens.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/pkg/crypto"
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
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("folio Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "gen-secret":
		err = genSecret()

	case "hash-password":
		err = hashPassword(args)

	case "token":
		err = issueToken(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func genSecret() error {
	secret, err := crypto.GenerateSecret()
	if err != nil {
		return err
	}
	fmt.Println(secret)
	return nil
}

// hashPassword reads a password from stdin and prints its bcrypt hash.
func hashPassword(args []string) error {
	flags := pflag.NewFlagSet("hash-password", pflag.ExitOnError)
	cost := flags.Int("cost", 12, "bcrypt cost")
	_ = flags.Parse(args)

	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := crypto.HashPassword(password, *cost)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

// issueToken signs a bearer token for an existing user, using the server's
// configured secret, issuer and TTL.
func issueToken(args []string) error {
	flags := pflag.NewFlagSet("token", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to config file")
	email := flags.String("email", "", "email of the user to issue a token for (default: the configured admin)")
	ttl := flags.Duration("ttl", 0, "token lifetime (default: auth.token_ttl)")
	_ = flags.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	if *email == "" {
		*email = cfg.Auth.AdminEmail
	}
	if *ttl <= 0 {
		*ttl = cfg.Auth.TokenTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repository.NewFactory(cfg.Database, zerolog.Nop()).Open(ctx)
	if err != nil {
		return err
	}
	defer store.Database.Close()

	user, err := store.Repos.User.GetByEmail(ctx, domain.NormalizeEmail(*email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no user with email %q; start the server once to bootstrap the admin", *email)
		}
		return err
	}

	token, expiresAt, err := auth.NewTokenService(cfg.Auth.JWTSecret, *ttl, cfg.Auth.Issuer).Issue(user)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Role: %s, expires: %s\n", user.Role, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
	return nil
}

func printUsage() {
	fmt.Println(`folio Admin CLI

Usage:
  folio-admin <command> [flags]

Commands:
  gen-secret      Print a random secret suitable for auth.jwt_secret
  hash-password   Read a password from stdin and print its bcrypt hash
  token           Issue a bearer token for an existing user
  version         Print version information
  help            Show this help message

Examples:
  folio-admin gen-secret
  echo 'hunter2' | folio-admin hash-password --cost 12
  folio-admin token --config /etc/folio/config.yaml --email admin@example.com --ttl 1h`)
}
