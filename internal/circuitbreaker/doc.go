// Package circuitbreaker stops calling an upstream that keeps failing.
//
// A breaker has three states:
//
//   - CLOSED: calls pass through
//   - OPEN: calls are skipped until the reset timeout elapses
//   - HALF-OPEN: one probe call is let through; success closes, failure reopens
//
// The count provider keeps one breaker per listing directory:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second, nil)
//	cb := registry.GetBreaker("ri/pid/h")
//	if cb.Allow() {
//	    if err := fetch(); err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
