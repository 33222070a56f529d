package observability

import "time"

// MetricsRegistry records application metrics. Handlers depend on it rather
// than on the Prometheus globals so tests can inspect or discard metrics.
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Editing metrics
	IncrementParamSaves(outcome string)
	IncrementStoreErrors(op string)

	// Side effect metrics
	IncrementNotifications(outcome string)
	IncrementAuditWrites(outcome string)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementParamSaves(outcome string) {
	ParamSaves.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementStoreErrors(op string) {
	StoreErrors.WithLabelValues(op).Inc()
}

func (r *PrometheusRegistry) IncrementNotifications(outcome string) {
	Notifications.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementAuditWrites(outcome string) {
	AuditWrites.WithLabelValues(outcome).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementParamSaves(outcome string)                                   {}
func (r *NoOpRegistry) IncrementStoreErrors(op string)                                       {}
func (r *NoOpRegistry) IncrementNotifications(outcome string)                                {}
func (r *NoOpRegistry) IncrementAuditWrites(outcome string)                                  {}
