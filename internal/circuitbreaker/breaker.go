package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Rejecting requests
	StateHalfOpen              // Testing with one trial request
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

type CircuitBreaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	trialInFlight    bool
	failureThreshold int
	recoveryTimeout  time.Duration
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		recoveryTimeout:  timeout,
	}
}

// Allow reports whether a call may proceed. An open breaker admits a
// single trial once the recovery timeout has elapsed; while that trial is
// in flight every other caller is rejected.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) > cb.recoveryTimeout {
			cb.state = StateHalfOpen
			cb.trialInFlight = true
			return true
		}

		return false
	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}

		cb.trialInFlight = true
		return true
	default:
		return true
	}
}

// RecordFailure counts a failed call. Reaching the failure threshold, or
// failing the half-open trial, opens the circuit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()
	cb.trialInFlight = false

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		return
	}

	if cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// ReleaseTrial frees the half-open trial slot without recording an
// outcome. Used when an admitted call never reached the network, so the
// next caller can run the trial instead.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.trialInFlight = false
}

// RecordSuccess closes the circuit and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.trialInFlight = false
	cb.state = StateClosed
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.failures
}
