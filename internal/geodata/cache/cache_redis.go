package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces geodata entries in a shared Redis instance.
const keyPrefix = "geodata:"

// Redis is a ResponseCache backed by a Redis instance; expiry is delegated
// to Redis TTLs. Values are JSON, matching the in-memory implementation.
type Redis struct {
	client redis.Cmdable
}

// NewRedis wraps an existing Redis client.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Get unmarshals the value for key into dest, reporting a miss for absent
// or expired keys.
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("unmarshal cached value for %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
