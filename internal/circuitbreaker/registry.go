package circuitbreaker

import (
	"sync"
	"time"

	"github.com/angeloszaimis/random-image/internal/ttlcache"
)

// Registry hands out one breaker per upstream key.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
	clock     ttlcache.Clock
}

func NewRegistry(threshold int, timeout time.Duration, clock ttlcache.Clock) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
		clock:     clock,
	}
}

func (r *Registry) GetBreaker(key string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[key]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have created it meanwhile.
	if cb, exists = r.breakers[key]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout, r.clock)
	r.breakers[key] = cb
	return cb
}

// Stats returns the current state of every breaker by key.
func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for key, cb := range r.breakers {
		stats[key] = cb.State()
	}
	return stats
}
