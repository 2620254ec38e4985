package client

import "time"

// RetryPolicy controls re-issuing of failed backend requests. Only
// transport-level failures and HTTP 5xx responses are retryable: 4xx
// responses signal a client, permission, or state problem that a retry
// cannot fix (notably 412 "already checked in", which is a terminal,
// correct answer and must never be re-submitted).
type RetryPolicy struct {
	// MaxAttempts is the total number of transport calls, including
	// the first one.
	MaxAttempts int
	// BackoffBase is the delay before the first retry; each further
	// retry doubles it.
	BackoffBase time.Duration
}

// DefaultRetryPolicy matches the congested-conference-wifi contract:
// up to 2 retries (3 attempts total) with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: 250 * time.Millisecond,
	}
}

// Retryable reports whether a failed attempt may be re-issued.
// transportErr is non-nil when no HTTP response was received; status
// is the HTTP status code otherwise.
func (p RetryPolicy) Retryable(status int, transportErr error) bool {
	if transportErr != nil {
		return true
	}
	return status >= 500
}

// Backoff returns the delay before the given retry. attempt counts the
// attempts already made, so the first retry gets the base delay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
