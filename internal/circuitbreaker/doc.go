// Package circuitbreaker implements the circuit breaker pattern for
// failing downstream services.
//
// A circuit breaker prevents retry storms by failing fast when a route's
// downstream keeps erroring. It has three states:
//
//   - CLOSED: Normal operation, requests pass through
//   - OPEN: Downstream failing, requests rejected without a network call
//   - HALF-OPEN: A single trial request tests whether the downstream recovered
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 60*time.Second)
//	cb := registry.GetBreaker("users|GET")
//	if cb.Allow() {
//	    // Make request...
//	    if err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
