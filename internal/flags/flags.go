// Package flags is the per-user local key-value capability: hint-seen
// markers, cached recent searches, the feed last-viewed timestamp. Callers
// receive it injected rather than reaching for ambient global state.
package flags

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KV stores small per-user strings. A missing key reads as "".
type KV interface {
	Get(ctx context.Context, userID, key string) (string, error)
	Set(ctx context.Context, userID, key, value string) error
	Clear(ctx context.Context, userID, key string) error
}

const keyPrefix = "flags:"

// Redis is the production KV, one redis string per (user, key).
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func flagKey(userID, key string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, userID, key)
}

func (r *Redis) Get(ctx context.Context, userID, key string) (string, error) {
	value, err := r.client.Get(ctx, flagKey(userID, key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read flag %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, userID, key, value string) error {
	if err := r.client.Set(ctx, flagKey(userID, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write flag %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, userID, key string) error {
	if err := r.client.Del(ctx, flagKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("failed to clear flag %s: %w", key, err)
	}
	return nil
}
