// Package retry provides a bounded retry policy for operations that may race
// a very recent write made on another connection. A freshly registered
// account, for example, can be authenticated before its profile row is
// visible to readers; wrapping the profile fetch in a short linear-backoff
// retry absorbs that window.
package retry

import (
	"context"
	"time"
)

// Policy is a fixed delay schedule. Attempt N that fails with a retryable
// error sleeps Delays[N-1] before the next attempt; attempts beyond
// len(Delays)+1 are never made.
type Policy struct {
	Delays []time.Duration
}

// Linear builds a policy whose delays grow by a fixed step: step, 2*step,
// 3*step, ... for the given number of retries.
func Linear(retries int, step time.Duration) Policy {
	delays := make([]time.Duration, retries)
	for i := range delays {
		delays[i] = time.Duration(i+1) * step
	}
	return Policy{Delays: delays}
}

// MaxAttempts is the total number of calls Do may make: the first attempt
// plus one per scheduled delay.
func (p Policy) MaxAttempts() int {
	return len(p.Delays) + 1
}

// Do runs fn until it succeeds, fails with a non-retryable error, exhausts
// the schedule, or the context is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt >= len(p.Delays) {
			return err
		}
		if sleepErr := sleep(ctx, p.Delays[attempt]); sleepErr != nil {
			return sleepErr
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
