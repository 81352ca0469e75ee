// Package metrics exposes Prometheus instrumentation for the geo API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldgeo",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fieldgeo",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Geometry metrics
	PathPoints = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fieldgeo",
		Subsystem: "geo",
		Name:      "path_points",
		Help:      "Number of points in paths submitted per operation",
		Buckets:   prometheus.ExponentialBuckets(2, 4, 8),
	}, []string{"operation"})

	SimplifyReduction = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fieldgeo",
		Subsystem: "geo",
		Name:      "simplify_reduction_ratio",
		Help:      "Fraction of points removed by path simplification",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	MeasurementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldgeo",
		Subsystem: "geo",
		Name:      "measurements_total",
		Help:      "Total surface measurements by outcome",
	}, []string{"outcome"})

	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fieldgeo",
		Subsystem: "geo",
		Name:      "decode_errors_total",
		Help:      "Total malformed encoded polylines received",
	})

	// Routing metrics
	OptimizationSavings = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fieldgeo",
		Subsystem: "routing",
		Name:      "optimization_savings_meters",
		Help:      "Distance saved by reordering stops compared to the submitted order",
		Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
	})

	DirectionsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldgeo",
		Subsystem: "routing",
		Name:      "directions_requests_total",
		Help:      "Total directions provider requests by result",
	}, []string{"result"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldgeo",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldgeo",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// NewCacheSizeGauge reports the number of cached entries at scrape time.
// Register it once with the registry that serves /metrics.
func NewCacheSizeGauge(size func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "fieldgeo",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Number of entries held in the result cache",
	}, func() float64 { return float64(size()) })
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request metrics. Paths are the fixed API routes so the
// label cardinality stays bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		// ServeMux fills in Pattern once it routes the request
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus /metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
