package interceptors

import (
	"context"
	"log/slog"

	"github.com/glimte/mmate-aspect/internal/reliability"
	"github.com/glimte/mmate-aspect/invocation"
)

// RetryInterceptor re-drives the rest of the chain while the policy allows.
// Every attempt proceeds into the same next invocation, so the inner
// interceptors and the real call must tolerate being run more than once.
type RetryInterceptor struct {
	retryPolicy reliability.RetryPolicy
	logger      *slog.Logger
}

// NewRetryInterceptor creates a new retry interceptor
func NewRetryInterceptor(retryPolicy reliability.RetryPolicy) *RetryInterceptor {
	return &RetryInterceptor{
		retryPolicy: retryPolicy,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the retry interceptor
func (r *RetryInterceptor) WithLogger(logger *slog.Logger) *RetryInterceptor {
	r.logger = logger
	return r
}

// Invoke implements MethodInterceptor
func (r *RetryInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	attempt := 0
	return reliability.Retry(ctx, r.retryPolicy, func() (any, error) {
		if attempt > 0 {
			r.logger.Debug("retrying method",
				"method", next.Method(),
				"invocationId", next.ID(),
				"attempt", attempt,
			)
		}
		attempt++
		return next.Proceed(ctx)
	})
}

// Name returns the interceptor name
func (r *RetryInterceptor) Name() string {
	return "RetryInterceptor"
}

// CircuitBreakerInterceptor routes calls through a circuit breaker
type CircuitBreakerInterceptor struct {
	circuitBreaker CircuitBreaker
}

// CircuitBreaker defines the interface for circuit breaker functionality
type CircuitBreaker interface {
	Execute(ctx context.Context, fn func() (any, error)) (any, error)
}

// NewCircuitBreakerInterceptor creates a new circuit breaker interceptor
func NewCircuitBreakerInterceptor(circuitBreaker CircuitBreaker) *CircuitBreakerInterceptor {
	return &CircuitBreakerInterceptor{circuitBreaker: circuitBreaker}
}

// Invoke implements MethodInterceptor
func (i *CircuitBreakerInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	return i.circuitBreaker.Execute(ctx, func() (any, error) {
		return next.Proceed(ctx)
	})
}

// Name implements Interceptor
func (i *CircuitBreakerInterceptor) Name() string {
	return "CircuitBreakerInterceptor"
}

// Clone implements Cloner. A *reliability.CircuitBreaker is duplicated
// without its failure history; other breakers are shared.
func (i *CircuitBreakerInterceptor) Clone() Interceptor {
	if cb, ok := i.circuitBreaker.(*reliability.CircuitBreaker); ok {
		return &CircuitBreakerInterceptor{circuitBreaker: cb.Clone()}
	}
	return &CircuitBreakerInterceptor{circuitBreaker: i.circuitBreaker}
}
