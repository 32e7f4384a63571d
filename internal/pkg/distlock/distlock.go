package distlock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by Wait when the lock stayed held elsewhere.
var ErrNotAcquired = errors.New("lock not acquired")

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// DefaultRetryInterval is the polling step used by Wait.
const DefaultRetryInterval = 25 * time.Millisecond

// Wait retries Acquire every interval until it succeeds, ctx is done or
// wait has elapsed. A zero wait tries exactly once.
func Wait(ctx context.Context, lock DistLock, wait, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	deadline := time.Now().Add(wait)

	for {
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrNotAcquired
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
