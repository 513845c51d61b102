package providers

import (
	"context"
	"time"
)

// RetryPolicy retries idempotent reads a bounded number of times with
// exponential backoff. Non-retryable failures surface immediately.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Do runs fn, retrying transient failures up to MaxRetries additional times.
// The delay doubles after each attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !Retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return NewError(CodeTimeout, "retry abandoned: %v", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}
