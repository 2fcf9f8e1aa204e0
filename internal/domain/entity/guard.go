package entity

import (
	"context"
	"time"
)

// guard serializes access to one record's mutable fields. It is a one-slot
// channel so acquisition can carry a deadline; a plain mutex cannot wait
// with a bound.
type guard chan struct{}

func newGuard() guard {
	return make(guard, 1)
}

// acquire blocks until the guard is free, the timeout elapses, or ctx is
// cancelled. Timeout surfaces as ErrLockTimeout, which callers must treat
// as retryable.
func (g guard) acquire(ctx context.Context, timeout time.Duration) error {
	select {
	case g <- struct{}{}:
		return nil
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case g <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return ErrLockTimeout
	}
}

func (g guard) release() {
	<-g
}
