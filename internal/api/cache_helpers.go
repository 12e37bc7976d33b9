package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const cacheSetTimeout = 5 * time.Second

// responseCache is the read-through layer in front of the dashboard services.
// Concurrent misses for the same key are collapsed through singleflight so a
// burst of panel refreshes costs one fetch.
type responseCache struct {
	store  Cacher
	sf     singleflight.Group
	ttl    time.Duration
	logger *zap.Logger
}

func newResponseCache(store Cacher, ttl time.Duration, logger *zap.Logger) *responseCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &responseCache{store: store, ttl: ttl, logger: logger}
}

// jitteredTTL spreads expirations by up to ±15s so keys written together
// don't all expire together.
func (rc *responseCache) jitteredTTL() time.Duration {
	if rc.ttl <= 0 {
		return rc.ttl
	}
	return rc.ttl + time.Duration(rand.Intn(30)-15)*time.Second
}

// cachedFetch resolves key from the cache, falling through to fn on a miss.
// The fetched value is written back asynchronously; a cache write failure
// never fails the request.
func cachedFetch[T any](ctx context.Context, rc *responseCache, key string, fn FetchFunc[T]) (T, error) {
	var zero T

	var cached T
	err := rc.store.Get(ctx, key, &cached)
	switch {
	case err == nil:
		rc.logger.Debug("cache hit", zap.String("key", key))
		return cached, nil
	case errors.Is(err, redis.Nil):
		rc.logger.Debug("cache miss", zap.String("key", key))
	default:
		rc.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := rc.sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		go func(v T) {
			setCtx, cancel := context.WithTimeout(context.Background(), cacheSetTimeout)
			defer cancel()
			if err := rc.store.Set(setCtx, key, v, rc.jitteredTTL()); err != nil {
				rc.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
			}
		}(value)

		return value, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		rc.logger.Debug("singleflight shared result", zap.String("key", key))
	}

	value, ok := v.(T)
	if !ok {
		rc.logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}
	return value, nil
}
