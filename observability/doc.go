// Package observability backs the metrics and tracing interceptors with
// Prometheus and OpenTelemetry.
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	tracer := observability.NewTracer(otel.Tracer("payments"))
//
//	stack := interceptors.NewStackBuilder(logger).
//		WithTracing(tracer).
//		WithMetrics(metrics).
//		Build()
package observability
