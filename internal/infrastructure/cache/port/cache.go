package port

import (
	"context"
	"errors"
	"time"
)

// Cache is the key-value store with expiry used for short-lived secrets
// such as one-time passcodes. Implementations must be safe for concurrent use
// and honor ctx for cancellation.
type Cache interface {
	// Get returns the value stored at key, or ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. A non-positive ttl stores it without expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss, distinct from transport errors.
var ErrMiss = errors.New("cache: miss")
