package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes edits to one session across server replicas.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. The lock
	// expires after ttl if the returned UnlockFunc is never called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
