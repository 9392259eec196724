package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get/GetJSON when the key is absent.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the coordinator contract shared by the Redis client and the
// in-process fallback. Implementations return errors; callers are expected
// to fail open (treat errors as a miss on reads, a no-op on writes).
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// GetOrCompute is the cache-aside helper: serve key from c when possible,
// otherwise run compute and store the result under key with the given TTL.
// Cache failures are logged and degrade to a plain compute; compute failures
// propagate unchanged.
func GetOrCompute[T any](ctx context.Context, c Cache, logger *zap.Logger, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	var cached T
	if c != nil {
		err := c.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn("cache read failed, falling through", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := compute()
	if err != nil {
		return value, err
	}

	if c != nil {
		if err := c.SetJSON(ctx, key, value, ttl); err != nil {
			logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}
