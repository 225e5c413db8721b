package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), RetryPolicy{Attempts: 2, Delay: time.Millisecond}, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 2, calls)
}

func TestWithRetryExhaustedReturnsLastError(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), RetryPolicy{Attempts: 2, Delay: time.Millisecond}, func(context.Context) (string, error) {
		calls++
		return "", errors.New("down")
	})
	require.EqualError(t, err, "down")
	require.Equal(t, 2, calls)
	require.False(t, errors.Is(err, ErrNotAttempted))
}

func TestWithRetryNotAttempted(t *testing.T) {
	called := false
	fn := func(context.Context) (int, error) {
		called = true
		return 1, nil
	}

	_, err := WithRetry(context.Background(), RetryPolicy{}, fn)
	require.ErrorIs(t, err, ErrNotAttempted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WithRetry(ctx, DefaultRetryPolicy, fn)
	require.ErrorIs(t, err, ErrNotAttempted)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
