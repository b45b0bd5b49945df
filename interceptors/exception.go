package interceptors

import (
	"context"
	"log/slog"

	"github.com/glimte/mmate-aspect/invocation"
)

// ErrorTranslator maps an error raised by a call to the error its caller sees
type ErrorTranslator interface {
	Translate(ctx context.Context, inv *invocation.Invocation, err error) error
}

// ErrorTranslatorFunc is a function adapter for ErrorTranslator
type ErrorTranslatorFunc func(ctx context.Context, inv *invocation.Invocation, err error) error

// Translate implements ErrorTranslator
func (f ErrorTranslatorFunc) Translate(ctx context.Context, inv *invocation.Invocation, err error) error {
	return f(ctx, inv, err)
}

// ErrorTranslationInterceptor replaces the error left by the rest of the
// exception chain with the translator's result
type ErrorTranslationInterceptor struct {
	translator ErrorTranslator
}

// NewErrorTranslationInterceptor creates a new error translation interceptor
func NewErrorTranslationInterceptor(translator ErrorTranslator) *ErrorTranslationInterceptor {
	return &ErrorTranslationInterceptor{translator: translator}
}

// InvokeException implements ExceptionInterceptor
func (i *ErrorTranslationInterceptor) InvokeException(ctx context.Context, next *invocation.Invocation) (any, error) {
	result, err := next.Proceed(ctx)
	if err != nil {
		return result, i.translator.Translate(ctx, next.Original(), err)
	}
	return result, nil
}

// Name implements Interceptor
func (i *ErrorTranslationInterceptor) Name() string {
	return "ErrorTranslationInterceptor"
}

// FallbackProvider supplies a replacement result for a failed call
type FallbackProvider interface {
	// Fallback returns the value to return instead of err, or false to keep err
	Fallback(ctx context.Context, inv *invocation.Invocation, err error) (any, bool)
}

// FallbackProviderFunc is a function adapter for FallbackProvider
type FallbackProviderFunc func(ctx context.Context, inv *invocation.Invocation, err error) (any, bool)

// Fallback implements FallbackProvider
func (f FallbackProviderFunc) Fallback(ctx context.Context, inv *invocation.Invocation, err error) (any, bool) {
	return f(ctx, inv, err)
}

// FallbackInterceptor suppresses the error left by the rest of the exception
// chain when the provider has a replacement result
type FallbackInterceptor struct {
	provider FallbackProvider
	logger   *slog.Logger
}

// NewFallbackInterceptor creates a new fallback interceptor
func NewFallbackInterceptor(provider FallbackProvider, logger *slog.Logger) *FallbackInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &FallbackInterceptor{provider: provider, logger: logger}
}

// InvokeException implements ExceptionInterceptor
func (i *FallbackInterceptor) InvokeException(ctx context.Context, next *invocation.Invocation) (any, error) {
	result, err := next.Proceed(ctx)
	if err == nil {
		return result, nil
	}

	if fallback, ok := i.provider.Fallback(ctx, next.Original(), err); ok {
		i.logger.Warn("method error suppressed by fallback",
			"method", next.Method(),
			"invocationId", next.ID(),
			"error", err,
		)
		return fallback, nil
	}

	return result, err
}

// Name implements Interceptor
func (i *FallbackInterceptor) Name() string {
	return "FallbackInterceptor"
}

// ErrorLoggingInterceptor logs the triggering error and proceeds
type ErrorLoggingInterceptor struct {
	logger *slog.Logger
}

// NewErrorLoggingInterceptor creates a new error logging interceptor
func NewErrorLoggingInterceptor(logger *slog.Logger) *ErrorLoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &ErrorLoggingInterceptor{logger: logger}
}

// InvokeException implements ExceptionInterceptor
func (i *ErrorLoggingInterceptor) InvokeException(ctx context.Context, next *invocation.Invocation) (any, error) {
	i.logger.Error("method raised an error",
		"method", next.Method(),
		"invocationId", next.ID(),
		"error", next.Err(),
	)

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *ErrorLoggingInterceptor) Name() string {
	return "ErrorLoggingInterceptor"
}
