package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/providerhub/internal/model"
	"github.com/redis/go-redis/v9"
)

const measureUnitsKey = "measure_units"

// hashClient is the subset of the go-redis client used by the cache.
type hashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

var _ MeasureUnitsReferenceBuilder = (*RedisMeasureUnitsCache)(nil)

// RedisMeasureUnitsCache is a read-through cache in front of another measure unit builder.
// Units are kept in a single hash keyed by unit code. Absent units are not cached.
// Redis failures are logged and the lookup falls through to the wrapped builder.
type RedisMeasureUnitsCache struct {
	client hashClient
	next   MeasureUnitsReferenceBuilder
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisMeasureUnitsCache wraps next with a Redis hash cache.
// The caller retains ownership of the client.
func NewRedisMeasureUnitsCache(client *redis.Client, next MeasureUnitsReferenceBuilder, keyPrefix string, ttl time.Duration, logger *slog.Logger) *RedisMeasureUnitsCache {
	return newRedisMeasureUnitsCache(client, next, keyPrefix, ttl, logger)
}

func newRedisMeasureUnitsCache(client hashClient, next MeasureUnitsReferenceBuilder, keyPrefix string, ttl time.Duration, logger *slog.Logger) *RedisMeasureUnitsCache {
	return &RedisMeasureUnitsCache{
		client: client,
		next:   next,
		key:    keyPrefix + measureUnitsKey,
		ttl:    ttl,
		logger: logger.With("component", "measure_units_cache"),
	}
}

func (c *RedisMeasureUnitsCache) GetInstance(_ context.Context) (MeasureUnitsReference, error) {
	return c, nil
}

// FindByCode looks the unit up in Redis first and falls back to the wrapped reference.
func (c *RedisMeasureUnitsCache) FindByCode(ctx context.Context, code string) (*model.MeasureUnit, error) {
	if unit, ok := c.lookup(ctx, code); ok {
		return unit, nil
	}

	ref, err := c.next.GetInstance(ctx)
	if err != nil {
		return nil, err
	}
	unit, err := ref.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find measure unit %q: %w", code, err)
	}
	if unit != nil {
		c.store(ctx, unit)
	}
	return unit, nil
}

func (c *RedisMeasureUnitsCache) lookup(ctx context.Context, code string) (*model.MeasureUnit, bool) {
	data, err := c.client.HGet(ctx, c.key, code).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.DebugContext(ctx, "cache miss for measure unit", "code", code)
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "failed to read measure unit from cache", "code", code, "error", err)
		return nil, false
	}
	var unit model.MeasureUnit
	if err := json.Unmarshal(data, &unit); err != nil {
		c.logger.WarnContext(ctx, "failed to unmarshal cached measure unit", "code", code, "error", err)
		return nil, false
	}
	return &unit, true
}

func (c *RedisMeasureUnitsCache) store(ctx context.Context, unit *model.MeasureUnit) {
	data, err := json.Marshal(unit)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to marshal measure unit", "code", unit.Code, "error", err)
		return
	}
	if err := c.client.HSet(ctx, c.key, unit.Code, data).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache measure unit", "code", unit.Code, "error", err)
		return
	}
	if c.ttl > 0 {
		if err := c.client.Expire(ctx, c.key, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "failed to set measure unit cache expiration", "error", err)
		}
	}
}
