package circuitbreaker

import (
	"sync"
	"time"

	"github.com/angeloszaimis/random-image/internal/ttlcache"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Skipping calls
	StateHalfOpen              // One probe in flight
)

type CircuitBreaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	probing          bool
	failureThreshold int
	resetTimeout     time.Duration
	clock            ttlcache.Clock
}

// NewCircuitBreaker creates a closed breaker that opens after threshold
// consecutive failures. A threshold below one disables the breaker.
func NewCircuitBreaker(threshold int, timeout time.Duration, clock ttlcache.Clock) *CircuitBreaker {
	if clock == nil {
		clock = ttlcache.SystemClock()
	}

	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     timeout,
		clock:            clock,
	}
}

// Allow reports whether a call may go upstream now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.clock.Now().Sub(cb.lastFailure) < cb.resetTimeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.probing = true
		return true
	case StateHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = cb.clock.Now()
	cb.probing = false

	if cb.failureThreshold < 1 {
		return
	}

	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// Release ends a call that never reached a verdict upstream, such as one
// cancelled by its caller. It frees the half-open slot without counting.
func (cb *CircuitBreaker) Release() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.probing = false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.probing = false
	cb.state = StateClosed
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

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
