package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"identity_bridge_backend/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient parses REDIS_URL, applies pool settings and verifies the connection.
func NewClient(cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return rdb, nil
}

// Close closes the client, logging instead of returning the error.
func Close(rdb *redis.Client, log *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		log.Error("Error closing Redis connection", zap.Error(err))
	}
}

// Key joins a key prefix and id with ':'.
func Key(prefix, id string) string {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		return id
	}
	return prefix + ":" + id
}
