// Package resilience provides fault tolerance patterns for remote fetches.
package resilience

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/duskrise/stargaze/internal/config"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
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

// CircuitBreaker tracks consecutive failures for one logical dependency and
// gates whether an attempt should be made at all. After maxFailures
// consecutive failures the circuit opens; once resetTimeout has elapsed a
// single half-open probe is allowed through. A probe failure re-opens the
// circuit immediately, a probe success closes it.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration

	state atomic.Int32

	mu              sync.Mutex
	failureCount    int
	lastFailureTime time.Time
	probeGranted    bool
	probeGrantedAt  time.Time

	onStateChange func(from, to State)
}

// stateTransition allows callbacks to be invoked outside the mutex to prevent deadlocks.
type stateTransition struct {
	from     State
	to       State
	callback func(from, to State)
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
	}

	if cb.maxFailures <= 0 {
		cb.maxFailures = 5
	}
	if cb.resetTimeout <= 0 {
		cb.resetTimeout = 30 * time.Second
	}

	cb.state.Store(int32(StateClosed))

	return cb
}

// CanAttempt reports whether a request should be attempted. Querying an open
// circuit whose reset timeout has elapsed transitions it to half-open and
// grants exactly one probe; further queries are denied until the probe's
// outcome is recorded, or until resetTimeout passes without an outcome and
// the probe is granted anew.
func (cb *CircuitBreaker) CanAttempt() bool {
	var transition *stateTransition
	var allowed bool

	cb.mu.Lock()
	switch State(cb.state.Load()) {
	case StateClosed:
		allowed = true

	case StateOpen:
		if time.Since(cb.lastFailureTime) > cb.resetTimeout {
			transition = cb.transitionTo(StateHalfOpen)
			cb.probeGranted = true
			cb.probeGrantedAt = time.Now()
			allowed = true
		}

	case StateHalfOpen:
		// One probe at a time. A probe whose outcome was never recorded
		// (caller abandoned it) forfeits its claim after resetTimeout so the
		// breaker cannot stay wedged in half-open.
		if !cb.probeGranted || time.Since(cb.probeGrantedAt) > cb.resetTimeout {
			cb.probeGranted = true
			cb.probeGrantedAt = time.Now()
			allowed = true
		}
	}
	cb.mu.Unlock()

	transition.invoke()
	return allowed
}

// Peek answers the same question as CanAttempt without mutating state.
// Used by availability queries that must not consume the half-open probe.
func (cb *CircuitBreaker) Peek() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch State(cb.state.Load()) {
	case StateClosed:
		return true
	case StateOpen:
		return time.Since(cb.lastFailureTime) > cb.resetTimeout
	case StateHalfOpen:
		return !cb.probeGranted || time.Since(cb.probeGrantedAt) > cb.resetTimeout
	default:
		return true
	}
}

// RecordSuccess records a successful operation. A half-open success closes
// the circuit; a success while closed resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	var transition *stateTransition

	cb.mu.Lock()
	switch State(cb.state.Load()) {
	case StateClosed:
		cb.failureCount = 0

	case StateHalfOpen:
		transition = cb.transitionTo(StateClosed)
	}
	cb.mu.Unlock()

	// Invoke callback outside mutex to prevent deadlock
	transition.invoke()
}

// RecordFailure records a failed operation. A half-open failure re-opens the
// circuit immediately, bypassing the failure-count threshold.
func (cb *CircuitBreaker) RecordFailure() {
	var transition *stateTransition

	cb.mu.Lock()
	switch State(cb.state.Load()) {
	case StateClosed:
		cb.failureCount++
		cb.lastFailureTime = time.Now()
		if cb.failureCount >= cb.maxFailures {
			transition = cb.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		cb.lastFailureTime = time.Now()
		transition = cb.transitionTo(StateOpen)

	case StateOpen:
		cb.lastFailureTime = time.Now()
	}
	cb.mu.Unlock()

	transition.invoke()
}

// transitionTo changes the circuit breaker state.
// Must be called while holding the mutex. The caller MUST invoke the returned
// transition (if non-nil) AFTER releasing the mutex to prevent deadlocks.
func (cb *CircuitBreaker) transitionTo(newState State) *stateTransition {
	oldState := State(cb.state.Load())
	if oldState == newState {
		return nil
	}

	switch newState {
	case StateClosed:
		cb.failureCount = 0
		cb.probeGranted = false
		cb.probeGrantedAt = time.Time{}

	case StateOpen:
		cb.probeGranted = false
		cb.probeGrantedAt = time.Time{}

	case StateHalfOpen:
		cb.probeGranted = false
		cb.probeGrantedAt = time.Time{}
	}

	cb.state.Store(int32(newState))

	if cb.onStateChange != nil {
		return &stateTransition{
			from:     oldState,
			to:       newState,
			callback: cb.onStateChange,
		}
	}
	return nil
}

// invoke safely invokes a state transition callback.
// Must be called AFTER releasing the mutex.
func (t *stateTransition) invoke() {
	if t != nil && t.callback != nil {
		t.callback(t.from, t.to)
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	return State(cb.state.Load())
}

// IsOpen returns true if the circuit is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// FailureCount returns the current consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// LastFailureTime returns the time of the most recent recorded failure,
// zero if none has occurred since the last reset.
func (cb *CircuitBreaker) LastFailureTime() time.Time {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastFailureTime
}

// SetOnStateChange sets a callback for state changes. The callback is invoked
// synchronously after a transition completes and may safely read breaker
// state without risk of deadlock.
func (cb *CircuitBreaker) SetOnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Reset unconditionally returns the breaker to closed state with a zero
// failure count. Escape hatch for caller-driven recovery, e.g. a manual
// refresh.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.lastFailureTime = time.Time{}
	cb.probeGranted = false
	cb.probeGrantedAt = time.Time{}
	cb.state.Store(int32(StateClosed))
}

// DisabledCircuitBreaker is a no-op breaker that allows all requests.
type DisabledCircuitBreaker struct{}

// NewDisabledCircuitBreaker creates a disabled circuit breaker.
func NewDisabledCircuitBreaker() *DisabledCircuitBreaker {
	return &DisabledCircuitBreaker{}
}

// CanAttempt returns true as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) CanAttempt() bool { return true }

// Peek returns true as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) Peek() bool { return true }

// RecordSuccess does nothing as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) RecordSuccess() {}

// RecordFailure does nothing as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) RecordFailure() {}

// State returns StateClosed as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) State() State { return StateClosed }

// IsOpen returns false as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) IsOpen() bool { return false }

// FailureCount returns 0 as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) FailureCount() int { return 0 }

// Reset does nothing as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) Reset() {}

// SetOnStateChange does nothing as this is a disabled circuit breaker.
func (cb *DisabledCircuitBreaker) SetOnStateChange(fn func(from, to State)) {}
