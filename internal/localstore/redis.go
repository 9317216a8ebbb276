package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rr:"

const defaultRedisTimeout = 2 * time.Second

// Redis stores entries in a Redis server under the rr: prefix. Each call
// is bounded by timeout so callers see a synchronous store.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedis creates a Redis-backed store. A zero timeout uses two seconds.
func NewRedis(client *redis.Client, timeout time.Duration) *Redis {
	return &Redis{client: client, timeout: redisTimeout(timeout)}
}

func redisTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultRedisTimeout
	}
	return d
}

// Get returns the value stored under key.
func (r *Redis) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the value stored under key. Entries do not expire.
func (r *Redis) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
