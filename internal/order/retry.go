package order

import "time"

// RetryPolicy decides the fate of failed execution attempts: exponential
// backoff up to MaxRetries, then terminal failure.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// DefaultRetryPolicy matches the production defaults: three attempts with
// delays of 1s, 2s and 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}
}

// Exhausted reports whether an order that has now failed retryCount times
// must be finalized instead of re-admitted.
func (p RetryPolicy) Exhausted(retryCount int) bool {
	return retryCount >= p.MaxRetries
}

// Delay returns the backoff before attempt n (1-based):
// InitialDelay * 2^(n-1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return p.InitialDelay
	}
	return p.InitialDelay << uint(attempt-1)
}
