package api

import (
	"math"
	"time"
)

// RetryPolicy defines how failed requests are retried.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy defines the interface for retry delay behavior.
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy, doubling the delay on each
// attempt up to Max (unbounded when Max is zero).
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(float64(eb.Initial) * math.Pow(2, float64(attempt-1)))
	if eb.Max > 0 && delay > eb.Max {
		return eb.Max
	}
	return delay
}

// DefaultRetryPolicy retries transport failures and 429/5xx responses
// three times with exponential backoff.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		Strategy:    &ExponentialBackoff{Initial: 250 * time.Millisecond, Max: 5 * time.Second},
	}
}
