package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgerctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	decodeBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerctl",
			Subsystem: "decode",
			Name:      "batches_total",
			Help:      "Extrinsic batches decoded, by outcome.",
		},
		[]string{"source", "outcome"},
	)
	decodeExtrinsics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerctl",
			Subsystem: "decode",
			Name:      "extrinsics_total",
			Help:      "Extrinsics decoded in successful batches.",
		},
		[]string{"source"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerctl",
			Subsystem: "decode",
			Name:      "failures_total",
			Help:      "Failed batches by failing step.",
		},
		[]string{"source", "kind"},
	)
	decodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgerctl",
			Subsystem: "decode",
			Name:      "batch_duration_seconds",
			Help:      "Batch decode duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"source"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			decodeBatches,
			decodeExtrinsics,
			decodeFailures,
			decodeDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDecodeBatch records one batch. An empty failureKind means success.
func RecordDecodeBatch(source string, count int, failureKind string, duration time.Duration) {
	RegisterMetrics()
	decodeDuration.WithLabelValues(source).Observe(duration.Seconds())
	if failureKind != "" {
		decodeBatches.WithLabelValues(source, "error").Inc()
		decodeFailures.WithLabelValues(source, failureKind).Inc()
		return
	}
	decodeBatches.WithLabelValues(source, "ok").Inc()
	decodeExtrinsics.WithLabelValues(source).Add(float64(count))
}
