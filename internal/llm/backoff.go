package llm

import (
	"context"
	"strings"
	"time"
)

// transientMarker flags rate-limit style failures worth retrying. Matching
// is a case-insensitive substring check against the error text, the only
// classification signal the capability boundary gives us.
const transientMarker = "rate_limit"

// IsTransient reports whether err is a retryable generation failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), transientMarker)
}

// RetryPolicy maps a 0-indexed attempt number to a backoff decision. It is
// a pure value with no clock or network behind it.
type RetryPolicy struct {
	MaxAttempts int           // total call budget, including the first call
	Unit        time.Duration // base wait; attempt k waits 2^k units
}

// Backoff returns how long to wait after failed attempt k before the next
// call, and whether another call is allowed at all.
func (p RetryPolicy) Backoff(attempt int) (time.Duration, bool) {
	if attempt < 0 || attempt >= p.MaxAttempts-1 {
		return 0, false
	}
	return (1 << attempt) * p.Unit, true
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
