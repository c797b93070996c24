package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps session state in Redis, keyed storefront:<session>:<key>.
// No TTL: a cart parked for a week must still be there, matching the
// durable-storage contract of the other backends.
type Redis struct {
	client    *redis.Client
	sessionID string
}

func NewRedis(client *redis.Client, sessionID string) *Redis {
	return &Redis{client: client, sessionID: sessionID}
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoValue
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) key(key string) string {
	return fmt.Sprintf("storefront:%s:%s", r.sessionID, key)
}
