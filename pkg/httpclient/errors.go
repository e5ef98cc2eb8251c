package httpclient

import (
	"fmt"
	"time"
)

// RetryableError reports a request that failed with a transient condition
// (rate limit, server error, network fault). RetryAfter carries the wait
// the server asked for, or the client's own backoff when the server gave
// none.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("HTTP %d: %s (retry after %v)", e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable marks the error for callers that probe with a type switch
// rather than errors.As.
func (e *RetryableError) IsRetryable() bool { return true }
