package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a Prometheus-backed interceptors.MetricsCollector.
type Metrics struct {
	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics registers and returns the invocation metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InvocationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aspect_invocations_total",
			Help: "Total intercepted method invocations.",
		}, []string{"method"}),
		InvocationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aspect_invocation_duration_seconds",
			Help:    "Intercepted invocation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aspect_invocation_errors_total",
			Help: "Total intercepted invocations that returned an error.",
		}, []string{"method", "type"}),
	}
}

// IncrementInvocationCount implements interceptors.MetricsCollector.
func (m *Metrics) IncrementInvocationCount(method string) {
	if m == nil {
		return
	}
	m.InvocationsTotal.WithLabelValues(method).Inc()
}

// RecordDuration implements interceptors.MetricsCollector.
func (m *Metrics) RecordDuration(method string, duration time.Duration) {
	if m == nil {
		return
	}
	m.InvocationDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// IncrementErrorCount implements interceptors.MetricsCollector.
func (m *Metrics) IncrementErrorCount(method string, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(method, errorType).Inc()
}
