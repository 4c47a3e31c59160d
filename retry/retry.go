package retry

import (
	"context"
	"time"

	ai "github.com/spetersoncode/scholar"
)

// Attempt describes a failed attempt that will be retried.
type Attempt struct {
	Number      int // 1-indexed
	MaxAttempts int
	Err         error
	Delay       time.Duration
}

// Notify is called before sleeping between attempts.
type Notify func(Attempt)

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. Backoff waits honor ctx and a server Retry-After hint
// when it is longer than the configured delay.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoNotify(ctx, cfg, nil, fn)
}

// DoNotify is Do with a callback for every retry.
func DoNotify[T any](ctx context.Context, cfg Config, notify Notify, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := cfg.Delay(attempt)
		if hint := ai.RetryAfterOf(err); hint > delay {
			delay = hint
		}
		if notify != nil {
			notify(Attempt{Number: attempt + 1, MaxAttempts: attempts, Err: err, Delay: delay})
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
