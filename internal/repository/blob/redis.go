package blob

import (
	"context"
	"errors"
	"fmt"

	"cartify/internal/domain"
	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	client    *redis.Client
	namespace string
}

// NewRedis stores blobs as plain string keys without expiry.
func NewRedis(client *redis.Client, namespace string) Repository {
	return &redisRepo{client: client, namespace: namespace}
}

func (r *redisRepo) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (r *redisRepo) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisRepo) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *redisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisRepo) redisKey(key string) string {
	return fmt.Sprintf("cartify:%s:%s", r.namespace, key)
}
