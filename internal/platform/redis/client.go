// Package redis opens the optional redis connection that backs sessions,
// idempotency keys and operator rate limits.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sidesa/internal/platform/config"
)

type Client struct {
	*redis.Client
}

// New connects to cfg.URL and pings it once under ctx. An empty URL means
// redis is not configured and yields a nil client.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health is registered as the "redis" readiness check.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
