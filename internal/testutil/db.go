package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/archon-research/answer-relay/db/migrator"
	"github.com/archon-research/answer-relay/internal/pkg/env"
	"github.com/archon-research/answer-relay/internal/pkg/retry"
)

// PostgresConfig describes the throwaway database started for integration tests.
type PostgresConfig struct {
	Image    string
	User     string
	Password string
	Database string
	Startup  time.Duration
}

// PostgresConfigFromEnv returns the defaults. TEST_POSTGRES_IMAGE overrides the
// image.
func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Image:    env.Get("TEST_POSTGRES_IMAGE", "postgres:17-alpine"),
		User:     "relay",
		Password: "relay",
		Database: "ledger",
		Startup:  60 * time.Second,
	}
}

// DSN is the connection string for the container at host:port.
func (c PostgresConfig) DSN(host, port string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, host, port, c.Database)
}

// StartPostgres starts a container for cfg and returns its DSN. The container
// is terminated when the test finishes.
func StartPostgres(t *testing.T, cfg PostgresConfig) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     cfg.User,
				"POSTGRES_PASSWORD": cfg.Password,
				"POSTGRES_DB":       cfg.Database,
			},
			// The entrypoint restarts the server once after init.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(cfg.Startup),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", cfg.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return cfg.DSN(host, port.Port())
}

// ConnectPool opens a pool for dsn and waits until it answers pings.
func ConnectPool(t *testing.T, dsn string) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	ping := retry.Config{MaxRetries: 20, InitialBackoff: 50 * time.Millisecond, MaxBackoff: 500 * time.Millisecond, BackoffFactor: 2}
	if err := retry.DoVoid(ctx, ping, nil, nil, pool.Ping); err != nil {
		t.Fatalf("database never became reachable: %v", err)
	}
	return pool
}

// MigrationsDir returns the absolute path of db/migrations.
func MigrationsDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "../../db/migrations")
}

// SetupPostgres starts a database, connects and applies every migration.
func SetupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := ConnectPool(t, StartPostgres(t, PostgresConfigFromEnv()))
	if err := migrator.New(pool, MigrationsDir(), DiscardLogger()).ApplyAll(context.Background()); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return pool
}
