// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Refresh cycle metrics
	CyclesTotal    *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec
	RecordsTotal   prometheus.Gauge
	ChangedRecords prometheus.Gauge
	DroppedRecords *prometheus.CounterVec

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	RateLimitWait    *prometheus.HistogramVec

	// Cache metrics
	CacheErrors *prometheus.CounterVec

	// Subscriber metrics
	Subscribers       prometheus.Gauge
	BroadcastMessages *prometheus.CounterVec
	BroadcastDropped  prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_feed"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycles_total",
			Help:      "Total number of refresh cycles by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		CycleDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycle_duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"trigger"}),
		RecordsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "records",
			Help:      "Number of records produced by the last successful cycle",
		}),
		ChangedRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "changed_records",
			Help:      "Number of changed records in the last successful cycle",
		}),
		DroppedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "dropped_records_total",
			Help:      "Total number of raw entries dropped during normalization by source",
		}, []string{"source"}),

		UpstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream HTTP requests by source and status",
		}, []string{"source", "status"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Upstream HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		RateLimitWait: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting on the rate limiter in seconds",
			Buckets:   []float64{0, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
		}, []string{"source"}),

		CacheErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Total number of cache store errors by operation",
		}, []string{"operation"}),

		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Number of connected websocket subscribers",
		}),
		BroadcastMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_total",
			Help:      "Total number of messages sent to subscribers by type",
		}, []string{"type"}),
		BroadcastDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "dropped_connections_total",
			Help:      "Total number of subscriber connections dropped after a failed send or missed heartbeat",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status",
		}, []string{"route", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful refresh cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a finished refresh cycle.
func RecordCycle(trigger, outcome string, seconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(trigger, outcome).Inc()
	DefaultMetrics.CycleDuration.WithLabelValues(trigger).Observe(seconds)
}

// RecordCycleRecords updates the record gauges after a successful cycle.
func RecordCycleRecords(total, changed int, unixSeconds float64) {
	DefaultMetrics.RecordsTotal.Set(float64(total))
	DefaultMetrics.ChangedRecords.Set(float64(changed))
	DefaultMetrics.LastSuccessfulCycle.Set(unixSeconds)
}

// RecordDroppedRecords counts raw entries dropped by a normalizer.
func RecordDroppedRecords(source string, n int) {
	if n > 0 {
		DefaultMetrics.DroppedRecords.WithLabelValues(source).Add(float64(n))
	}
}

// RecordUpstreamRequest records one upstream HTTP request.
func RecordUpstreamRequest(source, status string, seconds float64) {
	DefaultMetrics.UpstreamRequests.WithLabelValues(source, status).Inc()
	DefaultMetrics.UpstreamLatency.WithLabelValues(source).Observe(seconds)
}

// RecordRateLimitWait records time spent blocked on a rate limiter.
func RecordRateLimitWait(source string, seconds float64) {
	DefaultMetrics.RateLimitWait.WithLabelValues(source).Observe(seconds)
}

// RecordCacheError counts a failed cache operation.
func RecordCacheError(operation string) {
	DefaultMetrics.CacheErrors.WithLabelValues(operation).Inc()
}

// SetSubscribers updates the subscriber gauge.
func SetSubscribers(n int) {
	DefaultMetrics.Subscribers.Set(float64(n))
}

// RecordBroadcast counts a message delivered to a subscriber.
func RecordBroadcast(msgType string) {
	DefaultMetrics.BroadcastMessages.WithLabelValues(msgType).Inc()
}

// RecordDroppedConnection counts a subscriber removed after a failure.
func RecordDroppedConnection() {
	DefaultMetrics.BroadcastDropped.Inc()
}

// RecordHTTPRequest records one served API request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPLatency.WithLabelValues(route).Observe(seconds)
}
