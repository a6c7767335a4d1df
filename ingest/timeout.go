package ingest

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports that an operation failed to settle before its
// deadline. Distinguishable from the operation's own errors via
// errors.As.
type TimeoutError struct {
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Deadline)
}

// WithTimeout races fn against the deadline and returns whichever
// settles first. The losing fn is abandoned, not cancelled: fn gets a
// deadline-bound context to cooperate if it can, but no cooperation is
// assumed, so fn must clean up its own resources. Used to bound
// per-feed fetch time so one unreachable feed cannot stall a whole run.
func WithTimeout[T any](ctx context.Context, deadline time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	fnCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type result struct {
		value T
		err   error
	}

	// Buffered so the abandoned goroutine can still send and exit
	done := make(chan result, 1)
	go func() {
		value, err := fn(fnCtx)
		done <- result{value: value, err: err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	var zero T
	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		return zero, &TimeoutError{Deadline: deadline}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
