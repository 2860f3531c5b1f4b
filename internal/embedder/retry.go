package embedder

import (
	"context"
	"time"
)

// RetryConfig bounds the retry loop around provider calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns the retry bounds used for all provider calls:
// three attempts, 100ms initial delay, doubling up to 5s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// retryWithBackoff calls fn until it succeeds or the attempt budget runs
// out, doubling the sleep between attempts. Context cancellation ends the
// loop immediately, during a call as well as during a sleep.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	delay := config.BaseDelay

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt >= config.MaxRetries {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
}
