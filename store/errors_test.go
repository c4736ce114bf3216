package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"bad connection", driver.ErrBadConn, true},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"pq syntax error", &pq.Error{Code: "42601"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isRetryable(tc.err))
		})
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "count", func() error {
		calls++
		return errors.New("syntax error")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "count", se.Op)
	require.False(t, se.Retryable)
}

func TestWithRetryRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "count", func() error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "count", func() error {
		calls++
		return driver.ErrBadConn
	})
	require.Error(t, err)
	require.Equal(t, maxQueryAttempts, calls)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.True(t, se.Retryable)
	require.ErrorIs(t, err, driver.ErrBadConn)
}

func TestWithRetryDoesNotSleepAfterFinalAttempt(t *testing.T) {
	// Two backoff sleeps (between three attempts) cap out at 600ms with full
	// jitter; a stray sleep after the last attempt would push past that.
	start := time.Now()
	err := withRetry(context.Background(), "count", func() error {
		return driver.ErrBadConn
	})
	require.Error(t, err)
	require.Less(t, time.Since(start), 700*time.Millisecond)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, "count", func() error {
		calls++
		cancel()
		return driver.ErrBadConn
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
