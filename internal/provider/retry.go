package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotAttempted is returned when no request was sent at all, so callers can
// tell "the source had no data" apart from "the source was never asked".
var ErrNotAttempted = errors.New("request not attempted")

// RetryPolicy is a fixed attempt count with a constant pause between attempts.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy is used by the market data providers.
var DefaultRetryPolicy = RetryPolicy{Attempts: 2, Delay: 600 * time.Millisecond}

// WithRetry runs fn until it succeeds or the policy is exhausted and returns
// the last error.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.Attempts <= 0 {
		return zero, ErrNotAttempted
	}
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrNotAttempted, err)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.Attempts-1)),
		ctx,
	)
	return backoff.RetryWithData(func() (T, error) {
		return fn(ctx)
	}, b)
}
