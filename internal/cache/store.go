package cache

import (
	"context"
	"time"
)

// Store is the shared counter store used by distributed rate limiting.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Ping(ctx context.Context) error
	Close() error
}
