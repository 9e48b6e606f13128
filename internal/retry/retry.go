// Package retry holds the backoff and error-classification helpers
// shared by the upstream fetchers and the summarization client.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StatusError marks an HTTP response that arrived but carried a
// non-success status, so callers can decide whether to retry it.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// RetriableStatus reports whether a status code indicates a transient
// upstream condition worth another attempt.
func RetriableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Retriable reports whether err is worth another attempt. Context
// cancellation never is; a StatusError follows RetriableStatus;
// anything else (timeouts, connection resets) is assumed transient.
func Retriable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return RetriableStatus(statusErr.Code)
	}

	return true
}

// Backoff returns the delay before the given attempt (1-based),
// doubling from initial and capped at max.
func Backoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= max {
			return max
		}
	}

	return backoff
}

// AttemptTimeout scales a base timeout linearly with the attempt
// number, so a first try stays cheap and retries get more room.
func AttemptTimeout(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	return base * time.Duration(attempt)
}
