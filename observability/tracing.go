package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/invocation"
)

// Attribute keys set on every invocation span.
const (
	AttrInvocationID = "aspect.invocation.id"
	AttrMethod       = "aspect.method"
	AttrArguments    = "aspect.arguments"
)

// Tracer adapts an OpenTelemetry tracer to interceptors.Tracer.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps tracer. A nil tracer yields spans taken from the incoming
// context, which are no-ops unless the caller already started one.
func NewTracer(tracer trace.Tracer) *Tracer {
	return &Tracer{tracer: tracer}
}

// StartSpan implements interceptors.Tracer.
func (t *Tracer) StartSpan(ctx context.Context, operationName string, inv *invocation.Invocation) (context.Context, interceptors.Span) {
	if t.tracer == nil {
		return ctx, &span{span: trace.SpanFromContext(ctx)}
	}

	ctx, s := t.tracer.Start(ctx, operationName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrInvocationID, inv.ID()),
			attribute.String(AttrMethod, inv.Method()),
			attribute.Int(AttrArguments, inv.NumArguments()),
		),
	)
	return ctx, &span{span: s}
}

type span struct {
	span trace.Span
}

func (s *span) SetTag(key string, value any) {
	s.span.SetAttributes(attributeOf(key, value))
}

func (s *span) SetError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *span) Finish() {
	s.span.End()
}

func attributeOf(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
