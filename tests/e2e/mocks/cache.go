package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// PassthroughCache misses on every read so each request hits the services.
type PassthroughCache struct{}

func (c *PassthroughCache) Get(ctx context.Context, key string, dest any) error {
	return redis.Nil
}

func (c *PassthroughCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	return nil
}

func (c *PassthroughCache) Close() error {
	return nil
}

// TrackingCache is an in-memory stand-in for the redis cache with the same
// JSON encoding semantics, tracking call counts for assertions.
type TrackingCache struct {
	GetCalls int
	SetCalls int
	data     map[string]cacheEntry
}

type cacheEntry struct {
	payload []byte
	expiry  time.Time
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{
		data: make(map[string]cacheEntry),
	}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.GetCalls++
	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiry) {
		return redis.Nil
	}
	return json.Unmarshal(entry.payload, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	c.SetCalls++
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = cacheEntry{
		payload: payload,
		expiry:  time.Now().Add(exp),
	}
	return nil
}

func (c *TrackingCache) Close() error {
	return nil
}
