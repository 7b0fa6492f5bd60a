// Package redis provides a small TTL cache for fetched quote series,
// so overlapping refreshes and restarts inside the TTL window do not
// re-hit the upstream quote API.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// CacheConfig configures the quote cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}

// Cache stores JSON blobs keyed by symbol and lookback window.
type Cache struct {
	client *goredis.Client
}

// NewCache connects to Redis and pings the server.
func NewCache(cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[quote-cache] connected to %s", cfg.Addr)
	return &Cache{client: client}, nil
}

// Key builds the cache key for a symbol and lookback window.
func Key(symbol string, days int) string {
	return fmt.Sprintf("quotes:%s:%dd", symbol, days)
}

// Get returns the cached blob for the key, reporting a miss without
// error when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores the blob under the key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity, for health probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
