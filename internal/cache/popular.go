// Package cache keeps derived read models in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

const defaultPrefix = "jetsetgo:popular"

// PopularCache stores popular-destination rankings as JSON, one key per
// limit. Invalidate bumps a generation counter that is part of every key, so
// all rankings go stale at once and old keys simply expire.
type PopularCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewPopularCache constructs a PopularCache whose entries live for ttl.
func NewPopularCache(client *redis.Client, ttl time.Duration) *PopularCache {
	return &PopularCache{client: client, ttl: ttl, prefix: defaultPrefix}
}

// Connect parses url, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.Connect: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache.Connect: ping: %w", err)
	}
	return client, nil
}

// Key returns the key of the ranking for limit under the current
// generation. Callers compute it once, before reading the database, so a
// ranking read before an invalidation is never stored under the new
// generation.
func (c *PopularCache) Key(ctx context.Context, limit int) (string, error) {
	gen, err := c.client.Get(ctx, c.prefix+":gen").Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("cache.PopularCache.Key: %w", err)
	}
	return c.prefix + ":" + gen + ":" + strconv.Itoa(limit), nil
}

// Get returns the ranking stored under key. ok is false on a miss.
func (c *PopularCache) Get(ctx context.Context, key string) ([]domain.PopularDestination, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache.PopularCache.Get: %w", err)
	}
	var list []domain.PopularDestination
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false, fmt.Errorf("cache.PopularCache.Get: decode: %w", err)
	}
	return list, true, nil
}

// Set stores list under key.
func (c *PopularCache) Set(ctx context.Context, key string, list []domain.PopularDestination) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("cache.PopularCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.PopularCache.Set: %w", err)
	}
	return nil
}

// Invalidate makes every cached ranking stale.
func (c *PopularCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.prefix+":gen").Err(); err != nil {
		return fmt.Errorf("cache.PopularCache.Invalidate: %w", err)
	}
	return nil
}
