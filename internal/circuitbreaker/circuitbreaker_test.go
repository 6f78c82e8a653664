package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	boom := errors.New("broker unavailable")
	calls := 0
	fail := func() error { calls++; return boom }
	ok := func() error { calls++; return nil }

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, StateOpen, cb.State())

	// open: fn is not called
	err := cb.Execute(ok)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 2, calls)

	// after the timeout a single probe goes through
	now = now.Add(2 * time.Minute)
	assert.True(t, cb.AllowRequest())
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.False(t, cb.AllowRequest())

	// a failed probe reopens immediately
	cb.RecordResult(boom)
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 3, calls)
}
