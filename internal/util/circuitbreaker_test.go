package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerOptions{
		Name:             "tmdb",
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		Now:              clock.Now,
	}, zap.NewNop())

	cb.RecordFailure(0)
	assert.True(t, cb.CanExecute())

	cb.RecordFailure(0)
	assert.False(t, cb.CanExecute())
	assert.Equal(t, CircuitStateOpen, cb.Status().State)
	assert.NotNil(t, cb.Status().NextRetryTime)
}

func TestCircuitBreaker_HalfOpensAfterTimeoutAndCloses(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerOptions{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		Now:              clock.Now,
	}, zap.NewNop())

	cb.RecordFailure(0)
	assert.Equal(t, CircuitStateOpen, cb.State())

	clock.t = clock.t.Add(time.Minute)
	assert.Equal(t, CircuitStateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, cb.State())
	assert.Equal(t, 0, cb.Status().FailureCount)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerOptions{
		FailureThreshold: 3,
		ResetTimeout:     time.Second,
		Now:              clock.Now,
	}, zap.NewNop())

	for i := 0; i < 3; i++ {
		cb.RecordFailure(0)
	}
	clock.t = clock.t.Add(2 * time.Second)
	assert.Equal(t, CircuitStateHalfOpen, cb.State())

	cb.RecordFailure(0)
	assert.Equal(t, CircuitStateOpen, cb.State())
}

func TestCircuitBreaker_CustomTimeout(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerOptions{
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		Now:              clock.Now,
	}, zap.NewNop())

	cb.RecordFailure(time.Hour)
	clock.t = clock.t.Add(time.Minute)
	assert.False(t, cb.CanExecute())

	clock.t = clock.t.Add(time.Hour)
	assert.True(t, cb.CanExecute())
	assert.Equal(t, CircuitStateHalfOpen, cb.State())
}

func TestCircuitBreaker_HealthCheckRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	probed := make(chan struct{}, 1)
	cb := NewCircuitBreaker(CircuitBreakerOptions{
		FailureThreshold:    1,
		ResetTimeout:        time.Minute,
		HealthCheckInterval: time.Second,
		HealthCheck: func() bool {
			probed <- struct{}{}
			return true
		},
		Now: clock.Now,
	}, zap.NewNop())

	cb.RecordFailure(0)
	clock.t = clock.t.Add(2 * time.Second)
	cb.State()

	select {
	case <-probed:
	case <-time.After(time.Second):
		t.Fatal("health check was not triggered")
	}

	assert.Eventually(t, func() bool {
		return cb.State() == CircuitStateHalfOpen
	}, time.Second, 10*time.Millisecond)
}
