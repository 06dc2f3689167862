// Package main applies the SQL migrations in db/migrations to DATABASE_URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/archon-research/answer-relay/db/migrator"
	"github.com/archon-research/answer-relay/internal/adapters/outbound/postgres"
	"github.com/archon-research/answer-relay/internal/pkg/env"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dir := fs.String("dir", "./db/migrations", "Directory containing migration files")
	dbURL := fs.String("db", "", "PostgreSQL connection URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	url := *dbURL
	if url == "" {
		url = env.Get("DATABASE_URL", "")
	}
	if url == "" {
		return fmt.Errorf("database URL not provided (use -db flag or DATABASE_URL env var)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))

	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(url))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := migrator.New(pool, *dir, logger).ApplyAll(ctx); err != nil {
		return err
	}

	logger.Info("all migrations up to date")
	return nil
}
