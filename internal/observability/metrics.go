package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per route, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidderadmin_requests_total",
			Help: "Total HTTP requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per route/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bidderadmin_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// params saves labelled by outcome: updated, created, deleted, rejected
	ParamSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidderadmin_param_saves_total",
			Help: "Total bidder params saves",
		},
		[]string{"outcome"},
	)

	// failed store calls labelled by operation
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidderadmin_store_errors_total",
			Help: "Total config store errors",
		},
		[]string{"op"},
	)

	// update notifications labelled by outcome: published, failed
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidderadmin_notifications_total",
			Help: "Total config update notifications",
		},
		[]string{"outcome"},
	)

	// audit rows labelled by outcome: recorded, failed
	AuditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidderadmin_audit_writes_total",
			Help: "Total params edit audit writes",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		ParamSaves,
		StoreErrors,
		Notifications,
		AuditWrites,
	)
}
