// Package app contains the application setup for the provider service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/providerhub/internal/config"
	"github.com/abgdnv/providerhub/internal/reference"
	"github.com/abgdnv/providerhub/internal/service"
	"github.com/abgdnv/providerhub/internal/store"
	"github.com/abgdnv/providerhub/internal/transport/rest"
	pkgconfig "github.com/abgdnv/providerhub/pkg/config"
	"github.com/abgdnv/providerhub/pkg/messaging"
	pnats "github.com/abgdnv/providerhub/pkg/nats"
	"github.com/abgdnv/providerhub/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// References holds the catalog builders shared by every request.
type References struct {
	Products     reference.ProductsReferenceBuilder
	MeasureUnits reference.MeasureUnitsReferenceBuilder
}

type Dependencies struct {
	Processor    rest.ProviderDataProcessor
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// SetupReferences creates the lazily loaded catalog builders backed by Postgres.
// When redisClient is not nil, measure unit lookups go through the Redis cache first.
func SetupReferences(dbPool *pgxpool.Pool, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) References {
	loader := reference.NewPgCatalogLoader(dbPool)
	cb := cfg.Resilience.CircuitBreaker

	refs := References{
		Products:     reference.NewLazyProductsBuilder(loader, cfg.Reference.TTL, cb, logger),
		MeasureUnits: reference.NewLazyMeasureUnitsBuilder(loader, cfg.Reference.TTL, cb, logger),
	}
	if redisClient != nil {
		refs.MeasureUnits = reference.NewRedisMeasureUnitsCache(redisClient, refs.MeasureUnits, cfg.Redis.KeyPrefix, cfg.Redis.TTL, logger)
	}
	return refs
}

func SetupDependencies(providerStore store.ProviderStore, refs References, publisher messaging.Publisher, cfg *config.Config, logger *slog.Logger) *Dependencies {
	validator := service.NewProductValidator(refs.Products, refs.MeasureUnits)
	processor := service.NewProviderProcessor(providerStore, validator, publisher, cfg.Processing.CreateMissing, logger)

	return &Dependencies{
		Processor:    processor,
		MaxBodyBytes: cfg.Processing.MaxBodyBytes,
		Logger:       logger,
	}
}

// SetupPublisher connects to NATS and makes sure the providers stream exists.
// Without a configured NATS url events are dropped by a NoopPublisher.
// The returned close function releases the connection.
func SetupPublisher(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled() {
		logger.Warn("NATS is not configured, provider data events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}

	nc, err := pnats.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := pnats.EnsureStream(streamCtx, js, messaging.ProvidersStream, messaging.ProviderDataProcessedSubject); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to prepare NATS stream: %w", err)
	}
	logger.Info("Connected to NATS", slog.String("url", cfg.Url))
	return pnats.NewNatsPublisher(js), closeNats(nc, logger), nil
}

func closeNats(nc *nats.Conn, logger *slog.Logger) func() {
	return func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("Failed to drain NATS connection", slog.Any("error", err))
		}
	}
}

// SetupHttpHandler initializes the routes and middleware for the provider service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the provider service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Processor, deps.MaxBodyBytes, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the provider service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, "provider-http", mux)
}

// SetupGrpcServer creates the gRPC server that carries the standard health service.
func SetupGrpcServer(healthServer *health.Server, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(healthServer))
}
