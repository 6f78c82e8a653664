package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/sirupsen/logrus"
)

// ErrOpen is returned by Execute while the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the current state of the circuit breaker
type State int

const (
	StateClosed   State = iota // Normal operation, requests allowed
	StateOpen                  // Circuit is tripped, requests blocked
	StateHalfOpen              // Testing if service has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling a failing dependency after threshold
// consecutive failures and lets a single probe through once timeout elapsed.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	threshold int
	timeout   time.Duration
	lastError error
	openTime  time.Time
	now       func() time.Time
	logger    *logrus.Entry
}

// NewCircuitBreaker creates a closed circuit breaker.
//
// Parameters:
//   - threshold: Number of consecutive failures before opening the circuit
//   - timeout: Duration to wait before attempting recovery in half-open state
func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &CircuitBreaker{
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.WithField("component", "circuitbreaker"),
	}
}

// Execute runs fn if the circuit allows it and records the result. When the
// circuit is open it returns an error wrapping ErrOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.AllowRequest() {
		return fmt.Errorf("%w: %v", ErrOpen, cb.LastError())
	}

	err := fn()
	cb.RecordResult(err)
	return err
}

// AllowRequest reports whether a request may go through. An open circuit
// turns half-open once the timeout elapsed; only one probe is let through
// until its result is recorded.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openTime) < cb.timeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.logger.Warn("Circuit breaker transitioned to half-open")
		return true
	case StateHalfOpen:
		// a probe is already in flight
		return false
	default:
		return true
	}
}

// RecordResult records the result of a request. Failures count towards the
// threshold and a failed probe reopens the circuit. A success closes it.
func (cb *CircuitBreaker) RecordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state != StateClosed {
			cb.logger.Info("Circuit breaker closed")
		}
		cb.failures = 0
		cb.state = StateClosed
		return
	}

	cb.failures++
	cb.lastError = err
	if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
		if cb.state != StateOpen {
			cb.logger.WithField("failures", cb.failures).Warnf("Circuit breaker opened: %v", err)
		}
		cb.state = StateOpen
		cb.openTime = cb.now()
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) LastError() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastError
}
