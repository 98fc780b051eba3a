package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small cache-aside layer over Redis for read-heavy
// payloads (category tree, homepage content). All methods are safe to
// call on a nil receiver, so callers don't need to branch on whether
// Redis is configured.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var AppCache *Cache

// InitializeCache connects to Redis. An empty URL leaves AppCache nil
// and every cache call becomes a no-op miss.
func InitializeCache(redisURL string) error {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	AppCache = &Cache{client: client, prefix: "velora:", ttl: 5 * time.Minute}
	return nil
}

// Get retrieves a cached value into dest. Returns false on a miss or
// when caching is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a value with the default TTL. Errors are swallowed; the
// cache is advisory.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, data, c.ttl)
}

// Delete invalidates keys after a write.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.prefix + key
	}
	c.client.Del(ctx, full...)
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
