// Package cache memoizes transformed pricing documents in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/isa-group/harvey/config"
)

const keyPrefix = "pricing:"

// PricingCache stores transformed Pricing2Yaml documents keyed by their
// source URL. It satisfies core.DocumentCache.
type PricingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RedisConfig) (*PricingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &PricingCache{
		client: client,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}, nil
}

// Get returns the cached document for a source URL, if any.
func (c *PricingCache) Get(ctx context.Context, url string) (string, bool) {
	val, err := c.client.Get(ctx, keyPrefix+url).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Printf("get %s: %v", url, err)
		}
		return "", false
	}
	return val, true
}

// Set stores the transformed document for a source URL. Failures are logged
// and otherwise ignored, caching is best effort.
func (c *PricingCache) Set(ctx context.Context, url, yamlContent string) {
	if err := c.client.Set(ctx, keyPrefix+url, yamlContent, c.ttl).Err(); err != nil {
		c.logger.Printf("set %s: %v", url, err)
	}
}

// Close releases the Redis connection.
func (c *PricingCache) Close() error {
	return c.client.Close()
}
