package reporting

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/mmate-aspect/invocation"
)

// ReportingInterceptor publishes a FailureReport for every error reaching the
// exception chain, then proceeds so the error still propagates
type ReportingInterceptor struct {
	publisher Publisher
	source    string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a ReportingInterceptor
type Option func(*ReportingInterceptor)

// WithLogger sets the logger used for publish failures
func WithLogger(logger *slog.Logger) Option {
	return func(i *ReportingInterceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithSource sets the source recorded in every report
func WithSource(source string) Option {
	return func(i *ReportingInterceptor) {
		i.source = source
	}
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(i *ReportingInterceptor) {
		i.now = now
	}
}

// NewReportingInterceptor creates a new reporting interceptor
func NewReportingInterceptor(publisher Publisher, options ...Option) *ReportingInterceptor {
	i := &ReportingInterceptor{
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range options {
		opt(i)
	}

	return i
}

// InvokeException implements interceptors.ExceptionInterceptor. A failed
// publish is logged and never replaces the call's error.
func (i *ReportingInterceptor) InvokeException(ctx context.Context, next *invocation.Invocation) (any, error) {
	report := NewFailureReport(next.Original(), next.Err(), i.source, i.now())

	if err := i.publisher.Publish(ctx, report); err != nil {
		i.logger.Error("failed to publish failure report",
			"method", next.Method(),
			"invocationId", next.ID(),
			"reportId", report.ID,
			"error", err,
		)
	}

	return next.Proceed(ctx)
}

// Name implements interceptors.Interceptor
func (i *ReportingInterceptor) Name() string {
	return "ReportingInterceptor"
}
