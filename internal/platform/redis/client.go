// Package redis provides the shared Redis connection used by the calibration
// cache and the training job registry.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"modelguard/internal/platform/config"
	dErrors "modelguard/pkg/domain-errors"
)

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New creates a Redis client from the provided configuration and verifies
// connectivity with a bounded ping. Returns nil if the URL is empty: the
// process then degrades to its in-memory stores.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if cfg.PoolSize <= 0 {
		return nil, dErrors.Newf(dErrors.CodeConfiguration,
			"redis pool size must be positive, got %d", cfg.PoolSize)
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse redis URL")
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "redis ping failed")
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
