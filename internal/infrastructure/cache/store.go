// Package cache holds the short-lived key stores behind request idempotency.
package cache

import (
	"context"
	"time"
)

// IdempotencyStore records keys for a bounded time so a repeated request can
// be recognised. Implementations must make Reserve atomic.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops key so the request may be retried
	Release(ctx context.Context, key string) error
	// Exists reports whether key is currently held
	Exists(ctx context.Context, key string) (bool, error)
}
