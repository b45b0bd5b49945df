// Package reliability provides the retry and circuit breaker primitives used by
// the built-in interceptors.
//
//   - Retry policies: exponential backoff, linear and fixed delay
//   - Retry: re-runs a call until it succeeds, the policy gives up or the context ends
//   - CircuitBreaker: rejects calls after repeated failures until a cool-down expires
//
// Example usage:
//
//	cb := NewCircuitBreaker(
//	    WithFailureThreshold(5),
//	    WithSuccessThreshold(3),
//	    WithTimeout(30 * time.Second),
//	)
//
//	result, err := cb.Execute(ctx, func() (any, error) {
//	    return next.Proceed(ctx)
//	})
package reliability
