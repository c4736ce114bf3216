// api/store/errors.go
package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/lib/pq"
)

// StoreError wraps any backing-store failure. Retryable communicates whether
// a bounded retry is worth attempting; the retry itself happens once at the
// adapter boundary, callers above it only decide how to degrade.
type StoreError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v (retryable=%t)", e.Op, e.Err, e.Retryable)
}

func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Retryable: isRetryable(err), Err: err}
}

// isRetryable classifies transport-level failures as retryable and anything
// that looks like a malformed query or a caller-side cancellation as not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 = connection exceptions, 57P01 = admin shutdown.
		return pqErr.Code.Class() == "08" || pqErr.Code == "57P01"
	}
	var chErr *clickhouse.Exception
	if errors.As(err, &chErr) {
		// Server-side query errors are not retried.
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

const maxQueryAttempts = 3

// withRetry runs fn up to maxQueryAttempts times with exponential backoff and
// jitter, retrying only retryable store errors. The returned error is always
// a *StoreError.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr *StoreError
	for i := 0; i < maxQueryAttempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = newStoreError(op, err)
		if !lastErr.Retryable || i == maxQueryAttempts-1 {
			return lastErr
		}
		sleep := time.Duration((1<<i)*100) * time.Millisecond
		sleep += time.Duration(rand.Intn(150)) * time.Millisecond
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}
