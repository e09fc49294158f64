package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/abgdnv/providerhub/internal/errors"
	"github.com/abgdnv/providerhub/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerSettings builds breaker settings for a catalog source.
// Context cancellation is not counted as a source failure.
func NewCircuitBreakerSettings(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

// lazy loads a value on first use and keeps it for ttl. A zero ttl keeps it forever.
// When a refresh fails the previous value is served.
type lazy[T any] struct {
	mu       sync.Mutex
	name     string
	load     func(ctx context.Context) (T, error)
	breaker  *gobreaker.CircuitBreaker[T]
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	value    T
	loaded   bool
	loadedAt time.Time
}

func newLazy[T any](name string, load func(ctx context.Context) (T, error), ttl time.Duration, st gobreaker.Settings, logger *slog.Logger) *lazy[T] {
	return &lazy[T]{
		name:    name,
		load:    load,
		breaker: gobreaker.NewCircuitBreaker[T](st),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

func (l *lazy[T]) get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded && (l.ttl <= 0 || l.now().Sub(l.loadedAt) < l.ttl) {
		return l.value, nil
	}

	value, err := l.breaker.Execute(func() (T, error) {
		return l.load(ctx)
	})
	if err != nil {
		if l.loaded {
			l.logger.WarnContext(ctx, "failed to refresh catalog, serving previous snapshot", "catalog", l.name, "error", err)
			return l.value, nil
		}
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", apperrors.ErrReferenceUnavailable, l.name, err)
	}

	l.value = value
	l.loaded = true
	l.loadedAt = l.now()
	l.logger.DebugContext(ctx, "catalog loaded", "catalog", l.name)
	return l.value, nil
}

// LazyProductsBuilder loads the product catalog on first use and caches it.
type LazyProductsBuilder struct {
	lazy *lazy[*ProductsCatalog]
}

// NewLazyProductsBuilder creates a builder that loads products through the loader.
func NewLazyProductsBuilder(loader CatalogLoader, ttl time.Duration, cb config.CircuitBreakerConfig, logger *slog.Logger) *LazyProductsBuilder {
	logger = logger.With("component", "products_reference")
	st := NewCircuitBreakerSettings("products-catalog", cb, logger)
	return &LazyProductsBuilder{lazy: newLazy("products", loader.LoadProducts, ttl, st, logger)}
}

func (b *LazyProductsBuilder) GetInstance(ctx context.Context) (ProductsReference, error) {
	catalog, err := b.lazy.get(ctx)
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// LazyMeasureUnitsBuilder loads the measure unit catalog on first use and caches it.
type LazyMeasureUnitsBuilder struct {
	lazy *lazy[*MeasureUnitsCatalog]
}

// NewLazyMeasureUnitsBuilder creates a builder that loads measure units through the loader.
func NewLazyMeasureUnitsBuilder(loader CatalogLoader, ttl time.Duration, cb config.CircuitBreakerConfig, logger *slog.Logger) *LazyMeasureUnitsBuilder {
	logger = logger.With("component", "measure_units_reference")
	st := NewCircuitBreakerSettings("measure-units-catalog", cb, logger)
	return &LazyMeasureUnitsBuilder{lazy: newLazy("measure_units", loader.LoadMeasureUnits, ttl, st, logger)}
}

func (b *LazyMeasureUnitsBuilder) GetInstance(ctx context.Context) (MeasureUnitsReference, error) {
	catalog, err := b.lazy.get(ctx)
	if err != nil {
		return nil, err
	}
	return catalog, nil
}
