// Package interceptors defines the two interceptor capabilities and a set of
// built-in interceptors.
//
// A MethodInterceptor runs around a normal call; an ExceptionInterceptor runs
// when the wrapped call raised an error. Both receive the next invocation of
// their chain and decide whether to forward to it:
//
//	type AuditInterceptor struct{ log *slog.Logger }
//
//	func (i *AuditInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
//		i.log.Info("before", "method", next.Method())
//		result, err := next.Proceed(ctx)
//		i.log.Info("after", "method", next.Method(), "error", err)
//		return result, err
//	}
//
//	func (i *AuditInterceptor) Name() string { return "AuditInterceptor" }
//
// Returning without calling Proceed short-circuits the chain: the remaining
// interceptors and the real call never run and the interceptor's own result
// becomes the result of the call.
//
// Built-in method interceptors:
//   - LoggingInterceptor, MetricsInterceptor, TracingInterceptor
//   - ValidationInterceptor, AuthenticationInterceptor, RateLimitingInterceptor
//   - RetryInterceptor, CircuitBreakerInterceptor
//   - ShortCircuitInterceptor, CachingInterceptor
//   - FilteringInterceptor, ConditionalInterceptor, EnrichmentInterceptor (values shared through a CallScope)
//
// Built-in exception interceptors:
//   - ErrorLoggingInterceptor, ErrorTranslationInterceptor, FallbackInterceptor
//
// A duplicated dispatcher copies struct interceptors field by field.
// Interceptors whose state lives behind pointers, maps or caches implement
// Cloner so that the duplicate gets independent state.
package interceptors
