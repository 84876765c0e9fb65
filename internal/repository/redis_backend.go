package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/pettracker-client/pkg/database"
	"github.com/redis/go-redis/v9"
)

// redisBackend stores every credential entry as a plain Redis string
type redisBackend struct {
	redis *database.Redis
}

// NewRedisBackend creates a Redis-backed credential backend
func NewRedisBackend(redis *database.Redis) Backend {
	return &redisBackend{redis: redis}
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := b.redis.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("key %s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string) error {
	if err := b.redis.Client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (b *redisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.redis.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

func (b *redisBackend) Ping(ctx context.Context) error {
	return b.redis.Ping(ctx)
}

func (b *redisBackend) Close() error {
	return b.redis.Close()
}
