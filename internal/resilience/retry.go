package resilience

import (
	"context"
	"time"
)

// backoff returns the wait before the given attempt (1-based): attempt 1
// fires immediately, then baseDelay, 2x, 4x, ...
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return base << (attempt - 2)
}

// waitBackoff suspends until the delay elapses or the caller's deadline
// expires, whichever comes first. A timer plus select keeps the wait
// goroutine-suspending, never thread-blocking, so one slow retry cannot
// starve unrelated requests.
func waitBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
