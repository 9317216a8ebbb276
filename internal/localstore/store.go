// Package localstore provides the durable key/value store that backs the
// local review cache, favorites, and recently viewed lists.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is a synchronous key to serialized-value store.
type KV interface {
	// Get returns the stored value. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	// Set replaces the value stored under key.
	Set(key string, value []byte) error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	DB        *sql.DB
	RedisAddr string
	Timeout   time.Duration
}

// Open returns the KV for the configured backend. The Redis backend pings
// the server once so a bad address fails at startup.
func Open(opts Options) (KV, func() error, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		if opts.DB == nil {
			return nil, nil, fmt.Errorf("sqlite backend requires a database")
		}
		return NewSQLite(opts.DB), func() error { return nil }, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout(opts.Timeout))
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			if closeErr := client.Close(); closeErr != nil {
				return nil, nil, fmt.Errorf("pinging redis at %s: %w (also failed to close: %v)", opts.RedisAddr, err, closeErr)
			}
			return nil, nil, fmt.Errorf("pinging redis at %s: %w", opts.RedisAddr, err)
		}
		return NewRedis(client, opts.Timeout), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
