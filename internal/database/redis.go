package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RunCache is the Redis connection that holds run results until they expire.
type RunCache struct {
	client *redis.Client
}

// OpenRunCache connects to redisURL and pings it.
func OpenRunCache(ctx context.Context, redisURL string) (*RunCache, error) {
	opts, err := runCacheOptions(redisURL)
	if err != nil {
		return nil, err
	}

	c := &RunCache{client: redis.NewClient(opts)}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func runCacheOptions(redisURL string) (*redis.Options, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ClientName = applicationName
	return opts, nil
}

func (c *RunCache) Client() *redis.Client {
	return c.client
}

func (c *RunCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *RunCache) Close() error {
	return c.client.Close()
}
