package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ventacrm/crm/internal/config"
)

// NewRedis creates the session store client and waits until Redis answers.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	err = pingWithRetry(ctx, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
