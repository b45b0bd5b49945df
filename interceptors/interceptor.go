package interceptors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/mmate-aspect/invocation"
)

// Interceptor is the common identity of both interceptor variants
type Interceptor interface {
	// Name returns the interceptor name for logging and debugging
	Name() string
}

// MethodInterceptor runs around a normal call. It receives the next
// invocation in the chain and forwards to it by calling Proceed; returning
// without proceeding short-circuits the rest of the chain.
type MethodInterceptor interface {
	Interceptor
	Invoke(ctx context.Context, next *invocation.Invocation) (any, error)
}

// ExceptionInterceptor runs when the wrapped call failed. The invocation it
// receives carries the triggering error in Err; proceeding re-enters the rest
// of the exception chain and finally re-raises the error.
type ExceptionInterceptor interface {
	Interceptor
	InvokeException(ctx context.Context, next *invocation.Invocation) (any, error)
}

// Cloner is implemented by interceptors whose state needs more than a shallow
// copy to be independent. Clone must return an instance of the same variant
// whose state is independent of the receiver. Duplicated dispatchers copy
// other struct interceptors field by field and share non-struct ones.
type Cloner interface {
	Clone() Interceptor
}

// MethodInterceptorFunc is a function adapter for MethodInterceptor
type MethodInterceptorFunc struct {
	name string
	fn   func(ctx context.Context, next *invocation.Invocation) (any, error)
}

// NewMethodInterceptorFunc creates a function-based method interceptor
func NewMethodInterceptorFunc(name string, fn func(ctx context.Context, next *invocation.Invocation) (any, error)) *MethodInterceptorFunc {
	return &MethodInterceptorFunc{name: name, fn: fn}
}

// Invoke implements MethodInterceptor
func (i *MethodInterceptorFunc) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	return i.fn(ctx, next)
}

// Name implements Interceptor
func (i *MethodInterceptorFunc) Name() string {
	return i.name
}

// ExceptionInterceptorFunc is a function adapter for ExceptionInterceptor
type ExceptionInterceptorFunc struct {
	name string
	fn   func(ctx context.Context, next *invocation.Invocation) (any, error)
}

// NewExceptionInterceptorFunc creates a function-based exception interceptor
func NewExceptionInterceptorFunc(name string, fn func(ctx context.Context, next *invocation.Invocation) (any, error)) *ExceptionInterceptorFunc {
	return &ExceptionInterceptorFunc{name: name, fn: fn}
}

// InvokeException implements ExceptionInterceptor
func (i *ExceptionInterceptorFunc) InvokeException(ctx context.Context, next *invocation.Invocation) (any, error) {
	return i.fn(ctx, next)
}

// Name implements Interceptor
func (i *ExceptionInterceptorFunc) Name() string {
	return i.name
}

// Built-in method interceptors

// LoggingInterceptor logs entry and exit of every call
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingInterceptor{logger: logger}
}

// Invoke implements MethodInterceptor
func (i *LoggingInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	start := time.Now()

	i.logger.Info("invoking method",
		"method", next.Method(),
		"invocationId", next.ID(),
	)

	result, err := next.Proceed(ctx)
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("method invocation failed",
			"method", next.Method(),
			"invocationId", next.ID(),
			"duration", duration,
			"error", err,
		)
	} else {
		i.logger.Info("method invocation completed",
			"method", next.Method(),
			"invocationId", next.ID(),
			"duration", duration,
		)
	}

	return result, err
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// MetricsInterceptor collects metrics about method calls
type MetricsInterceptor struct {
	collector MetricsCollector
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	IncrementInvocationCount(method string)
	RecordDuration(method string, duration time.Duration)
	IncrementErrorCount(method string, errorType string)
}

// NewMetricsInterceptor creates a new metrics interceptor
func NewMetricsInterceptor(collector MetricsCollector) *MetricsInterceptor {
	return &MetricsInterceptor{collector: collector}
}

// Invoke implements MethodInterceptor
func (i *MetricsInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	start := time.Now()
	method := next.Method()

	i.collector.IncrementInvocationCount(method)

	result, err := next.Proceed(ctx)

	i.collector.RecordDuration(method, time.Since(start))
	if err != nil {
		i.collector.IncrementErrorCount(method, "invocation_error")
	}

	return result, err
}

// Name implements Interceptor
func (i *MetricsInterceptor) Name() string {
	return "MetricsInterceptor"
}

// TracingInterceptor wraps each call in a span
type TracingInterceptor struct {
	tracer Tracer
}

// Tracer defines the interface for distributed tracing
type Tracer interface {
	StartSpan(ctx context.Context, operationName string, inv *invocation.Invocation) (context.Context, Span)
}

// Span represents a tracing span
type Span interface {
	SetTag(key string, value any)
	SetError(err error)
	Finish()
}

// NewTracingInterceptor creates a new tracing interceptor
func NewTracingInterceptor(tracer Tracer) *TracingInterceptor {
	return &TracingInterceptor{tracer: tracer}
}

// Invoke implements MethodInterceptor
func (i *TracingInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	spanCtx, span := i.tracer.StartSpan(ctx, "aspect.invoke", next)
	defer span.Finish()

	span.SetTag("invocation.id", next.ID())
	span.SetTag("invocation.method", next.Method())

	result, err := next.Proceed(spanCtx)
	if err != nil {
		span.SetError(err)
	}

	return result, err
}

// Name implements Interceptor
func (i *TracingInterceptor) Name() string {
	return "TracingInterceptor"
}

// ValidationInterceptor validates arguments before the call proceeds
type ValidationInterceptor struct {
	validator ArgumentValidator
}

// ArgumentValidator checks the arguments of the original invocation
type ArgumentValidator interface {
	Validate(ctx context.Context, inv *invocation.Invocation) error
}

// NewValidationInterceptor creates a new validation interceptor
func NewValidationInterceptor(validator ArgumentValidator) *ValidationInterceptor {
	return &ValidationInterceptor{validator: validator}
}

// Invoke implements MethodInterceptor
func (i *ValidationInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	if err := i.validator.Validate(ctx, next.Original()); err != nil {
		return nil, fmt.Errorf("argument validation failed for %s: %w", next.Method(), err)
	}

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *ValidationInterceptor) Name() string {
	return "ValidationInterceptor"
}

// AuthenticationInterceptor rejects calls the authenticator refuses
type AuthenticationInterceptor struct {
	authenticator Authenticator
}

// Authenticator defines the interface for call authentication
type Authenticator interface {
	Authenticate(ctx context.Context, inv *invocation.Invocation) error
}

// NewAuthenticationInterceptor creates a new authentication interceptor
func NewAuthenticationInterceptor(authenticator Authenticator) *AuthenticationInterceptor {
	return &AuthenticationInterceptor{authenticator: authenticator}
}

// Invoke implements MethodInterceptor
func (i *AuthenticationInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	if err := i.authenticator.Authenticate(ctx, next.Original()); err != nil {
		return nil, fmt.Errorf("authentication failed for %s: %w", next.Method(), err)
	}

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *AuthenticationInterceptor) Name() string {
	return "AuthenticationInterceptor"
}

// RateLimitingInterceptor rejects calls over the limiter's rate
type RateLimitingInterceptor struct {
	limiter RateLimiter
}

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

// NewRateLimitingInterceptor creates a new rate limiting interceptor
func NewRateLimitingInterceptor(limiter RateLimiter) *RateLimitingInterceptor {
	return &RateLimitingInterceptor{limiter: limiter}
}

// Invoke implements MethodInterceptor
func (i *RateLimitingInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	// Use method name as rate limiting key
	key := next.Method()

	if err := i.limiter.Allow(ctx, key); err != nil {
		return nil, fmt.Errorf("rate limit exceeded for method %s: %w", key, err)
	}

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *RateLimitingInterceptor) Name() string {
	return "RateLimitingInterceptor"
}

// Clone implements Cloner when the limiter keeps per-instance buckets
func (i *RateLimitingInterceptor) Clone() Interceptor {
	if c, ok := i.limiter.(interface{ Clone() RateLimiter }); ok {
		return &RateLimitingInterceptor{limiter: c.Clone()}
	}
	return i
}

// Default stack builder

// StackBuilder assembles an ordered list of method interceptors that can be
// registered for a method in one call.
type StackBuilder struct {
	stack  []MethodInterceptor
	logger *slog.Logger
}

// NewStackBuilder creates a new builder
func NewStackBuilder(logger *slog.Logger) *StackBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &StackBuilder{logger: logger}
}

// WithLogging adds logging interceptor
func (b *StackBuilder) WithLogging() *StackBuilder {
	return b.WithCustom(NewLoggingInterceptor(b.logger))
}

// WithMetrics adds metrics interceptor
func (b *StackBuilder) WithMetrics(collector MetricsCollector) *StackBuilder {
	return b.WithCustom(NewMetricsInterceptor(collector))
}

// WithTracing adds tracing interceptor
func (b *StackBuilder) WithTracing(tracer Tracer) *StackBuilder {
	return b.WithCustom(NewTracingInterceptor(tracer))
}

// WithValidation adds validation interceptor
func (b *StackBuilder) WithValidation(validator ArgumentValidator) *StackBuilder {
	return b.WithCustom(NewValidationInterceptor(validator))
}

// WithAuthentication adds authentication interceptor
func (b *StackBuilder) WithAuthentication(authenticator Authenticator) *StackBuilder {
	return b.WithCustom(NewAuthenticationInterceptor(authenticator))
}

// WithRateLimit adds rate limiting interceptor
func (b *StackBuilder) WithRateLimit(limiter RateLimiter) *StackBuilder {
	return b.WithCustom(NewRateLimitingInterceptor(limiter))
}

// WithCircuitBreaker adds circuit breaker interceptor
func (b *StackBuilder) WithCircuitBreaker(circuitBreaker CircuitBreaker) *StackBuilder {
	return b.WithCustom(NewCircuitBreakerInterceptor(circuitBreaker))
}

// WithCustom adds a custom interceptor
func (b *StackBuilder) WithCustom(interceptor MethodInterceptor) *StackBuilder {
	b.stack = append(b.stack, interceptor)
	return b
}

// Build returns the interceptors in the order they were added
func (b *StackBuilder) Build() []MethodInterceptor {
	return append([]MethodInterceptor(nil), b.stack...)
}
