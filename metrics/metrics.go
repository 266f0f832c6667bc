// Package metrics provides Prometheus metrics for pubgate operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pubgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Authorization metrics
	AuthDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubgate_auth_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"outcome", "level"}, // outcome: "granted", "not_found", "unauthorized"
	)

	ShareURLsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pubgate_share_urls_issued_total",
			Help: "Total number of share URLs issued",
		},
	)

	// Object store metrics
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubgate_store_ops_total",
			Help: "Total number of object store operations",
		},
		[]string{"operation"},
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pubgate_store_op_duration_seconds",
			Help:    "Object store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Thumbnail cache metrics
	ThumbnailRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubgate_thumbnail_refreshes_total",
			Help: "Total number of thumbnail refresh outcomes",
		},
		[]string{"result"}, // "generated", "fresh", "failed"
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pubgate_conversion_duration_seconds",
			Help:    "Converter invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"family"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubgate_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
)

// RegisterMetrics ensures all metrics are registered with Prometheus.
// This function is idempotent and safe to call multiple times.
func RegisterMetrics() {
	// All metrics are automatically registered via promauto.
}
