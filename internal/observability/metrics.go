package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the request and store counters.
const (
	OutcomeSuccess   = "success"
	OutcomeServer    = "server_error"
	OutcomeTransport = "transport_error"
	OutcomeFailed    = "failed"
	OutcomeStale     = "stale"
)

// Metrics holds all Prometheus metrics for client self-monitoring.
// It uses a custom registry to avoid polluting the global default.
type Metrics struct {
	Registry *prometheus.Registry

	// Transport metrics
	RequestDuration   *prometheus.HistogramVec
	RequestsTotal     *prometheus.CounterVec
	ResponseSizeBytes *prometheus.HistogramVec
	TransportRetries  prometheus.Counter

	// Envelope metrics
	ShapeMismatches *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreInFlight   *prometheus.GaugeVec

	// Dashboard metrics
	RefreshDuration  prometheus.Histogram
	RefreshMembers   *prometheus.CounterVec
	ClustersByStatus *prometheus.GaugeVec
	ProblemPods      prometheus.Gauge

	// Console state
	ConsoleState *prometheus.GaugeVec

	// Notifications shown to the user
	NotificationsTotal *prometheus.CounterVec

	// Export metrics
	ExportSizeBytes  *prometheus.HistogramVec
	CompressionRatio prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all Prometheus metrics
// registered on a custom registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	sizeBuckets := prometheus.ExponentialBuckets(256, 4, 10)

	m := &Metrics{
		Registry: reg,

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resource_insight_request_duration_seconds",
			Help:    "Duration of backend requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resource_insight_requests_total",
			Help: "Total number of backend requests by outcome.",
		}, []string{"endpoint", "outcome"}),
		ResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resource_insight_response_size_bytes",
			Help:    "Decoded size of backend response bodies in bytes.",
			Buckets: sizeBuckets,
		}, []string{"endpoint"}),
		TransportRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resource_insight_transport_retries_total",
			Help: "Total number of transport retry attempts.",
		}),

		ShapeMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resource_insight_shape_mismatches_total",
			Help: "Responses that did not match their endpoint descriptor.",
		}, []string{"endpoint"}),

		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resource_insight_store_operations_total",
			Help: "Store operations by outcome (success, failed, stale).",
		}, []string{"store", "outcome"}),
		StoreInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "resource_insight_store_in_flight",
			Help: "Store operations currently awaiting a response.",
		}, []string{"store"}),

		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resource_insight_refresh_duration_seconds",
			Help:    "Duration of dashboard refresh-all operations in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		RefreshMembers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resource_insight_refresh_members_total",
			Help: "Refresh-all member results by outcome.",
		}, []string{"member", "outcome"}),
		ClustersByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "resource_insight_clusters",
			Help: "Registered clusters by last known status.",
		}, []string{"status"}),
		ProblemPods: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "resource_insight_problem_pods",
			Help: "Pods flagged as unreasonable by the last analysis.",
		}),

		ConsoleState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "resource_insight_console_state",
			Help: "Current console state (1 = active, 0 = inactive).",
		}, []string{"state"}),

		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resource_insight_notifications_total",
			Help: "Notifications raised by type.",
		}, []string{"type"}),

		ExportSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resource_insight_export_size_bytes",
			Help:    "Size of CSV exports in bytes.",
			Buckets: sizeBuckets,
		}, []string{"encoding"}),
		CompressionRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "resource_insight_export_compression_ratio",
			Help: "Compression ratio of the last compressed export (compressed/original).",
		}),
	}

	// Register all metrics with the custom registry.
	reg.MustRegister(
		m.RequestDuration,
		m.RequestsTotal,
		m.ResponseSizeBytes,
		m.TransportRetries,
		m.ShapeMismatches,
		m.StoreOperations,
		m.StoreInFlight,
		m.RefreshDuration,
		m.RefreshMembers,
		m.ClustersByStatus,
		m.ProblemPods,
		m.ConsoleState,
		m.NotificationsTotal,
		m.ExportSizeBytes,
		m.CompressionRatio,
	)

	return m
}
