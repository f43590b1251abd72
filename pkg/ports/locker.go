package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates per-proposal mutation across multiple
// coordinator instances. It blocks until the lock is acquired or the context
// is canceled, and returns an UnlockFunc that MUST be called.
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
