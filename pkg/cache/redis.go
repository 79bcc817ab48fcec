// Package cache connects to the Redis instance that holds pending one-time codes.
package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sciclub-api/pkg/config"
)

// NewRedis dials Redis and fails unless the server answers a PING within DialTimeout.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	}
	client := redis.NewClient(opts)

	if err := Probe(client)(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Probe returns a readiness check bounded by the client's dial timeout.
func Probe(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		timeout := client.Options().DialTimeout
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis %s: %w", client.Options().Addr, err)
		}
		return nil
	}
}
