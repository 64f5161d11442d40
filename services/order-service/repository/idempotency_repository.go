package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the first request for a key is in flight.
const pendingMarker = "__pending__"

type RedisIdempotencyRepository struct {
	client *redis.Client
}

func NewRedisIdempotencyRepository(client *redis.Client) IdempotencyRepository {
	return &RedisIdempotencyRepository{client: client}
}

func (r *RedisIdempotencyRepository) getKey(key string) string {
	return fmt.Sprintf("idempotency:order:%s", key)
}

func (r *RedisIdempotencyRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.getKey(key), pendingMarker, ttl).Result()
}

func (r *RedisIdempotencyRepository) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.getKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if val == pendingMarker {
		return "", nil
	}
	return val, nil
}

func (r *RedisIdempotencyRepository) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.getKey(key), value, ttl).Err()
}

func (r *RedisIdempotencyRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.getKey(key)).Err()
}
