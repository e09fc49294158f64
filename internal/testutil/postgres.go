// Package testutil starts disposable infrastructure for integration tests.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abgdnv/providerhub/internal/store/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SkipIntegrationTests is the env var that disables container based tests when set to "1".
const SkipIntegrationTests = "PROVIDER_SVC_SKIP_INTEGRATION_TESTS"

// IntegrationDisabled reports whether integration tests should be skipped.
func IntegrationDisabled() bool {
	return os.Getenv(SkipIntegrationTests) == "1"
}

// Postgres is a migrated PostgreSQL container with a connection pool.
type Postgres struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	URL       string
}

// StartPostgres runs a PostgreSQL container, waits for it and applies the embedded migrations.
func StartPostgres(ctx context.Context, logger *slog.Logger) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("providers_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run PostgreSQL container: %w", err)
	}
	pg := &Postgres{Container: container}

	pg.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		pg.Terminate(ctx, logger)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pg.Pool, err = pgxpool.New(ctx, pg.URL)
	if err != nil {
		pg.Terminate(ctx, logger)
		return nil, fmt.Errorf("failed to create pgxpool: %w", err)
	}

	for i := range 10 {
		logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		if err = pg.Pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		pg.Terminate(ctx, logger)
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	if err := migrations.Up(pg.URL); err != nil {
		pg.Terminate(ctx, logger)
		return nil, err
	}
	logger.Info("Migrations applied")
	return pg, nil
}

// Terminate closes the pool and stops the container.
func (p *Postgres) Terminate(ctx context.Context, logger *slog.Logger) {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.Container != nil {
		if err := p.Container.Terminate(ctx); err != nil {
			logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}
