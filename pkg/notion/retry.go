package notion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy retries transient failures. Delays[i] is the wait after attempt
// i+1; an empty table means a single attempt.
type Policy struct {
	Delays []time.Duration
}

var DefaultPolicy = Policy{
	Delays: []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
	},
}

// NoRetry makes exactly one attempt.
var NoRetry = Policy{}

type RetryFunc func(ctx context.Context, attempt int) error

// Do runs fn until it succeeds, fails permanently or the delays run out.
// Only Retryable *APIError values and transport failures are retried. A Retry-After longer than the table's delay wins.
func (p Policy) Do(ctx context.Context, fn RetryFunc) error {
	attempts := len(p.Delays) + 1
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn(ctx, i+1)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || i == attempts-1 {
			break
		}

		delay := p.Delays[i]
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > delay {
			delay = apiErr.RetryAfter
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if attempts > 1 && retryable(lastErr) {
		return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
	}
	return lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var te *transportError
	return errors.As(err, &te)
}
