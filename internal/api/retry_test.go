package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff(t *testing.T) {
	eb := &ExponentialBackoff{Initial: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, eb.NextDelay(3))
}

func TestExponentialBackoff_Cap(t *testing.T) {
	eb := &ExponentialBackoff{Initial: time.Second, Max: 3 * time.Second}
	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 3*time.Second, eb.NextDelay(3))
	assert.Equal(t, 3*time.Second, eb.NextDelay(10))
}

func TestExponentialBackoff_ClampsAttempt(t *testing.T) {
	eb := &ExponentialBackoff{Initial: time.Second}
	assert.Equal(t, time.Second, eb.NextDelay(0))
	assert.Equal(t, time.Second, eb.NextDelay(-3))
}

func TestCircuitBreaker_States(t *testing.T) {
	cb := NewCircuitBreaker(2, 10*time.Millisecond, 1)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, cb.Allow(), "expired open circuit admits a probe")
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ReopensFromHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute, 1)
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobQueued.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.True(t, JobCancelled.Terminal())
}
