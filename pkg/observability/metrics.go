package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Connectivity metrics
	ActivePollers        prometheus.Gauge
	PollerRefreshesTotal *prometheus.CounterVec

	// Billing metrics
	ReconciliationsTotal *prometheus.CounterVec
	PendingPayments      prometheus.Gauge
	ExpiredSweepsTotal   prometheus.Counter
	SubscribersSuspended prometheus.Counter

	// Policy encoder metrics
	PolicyEncodesTotal *prometheus.CounterVec
	PolicyRejectsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyisp_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyisp_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyisp_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type", "key_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type", "key_type"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyisp_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyisp_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyisp_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyisp_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		// Connectivity metrics
		ActivePollers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyisp_active_pollers",
				Help: "Number of subscriber status pollers currently running",
			},
		),
		PollerRefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_poller_refreshes_total",
				Help: "Total number of completed status polls by result",
			},
			[]string{"result"},
		),

		// Billing metrics
		ReconciliationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_reconciliations_total",
				Help: "Total number of payment resolve attempts by outcome",
			},
			[]string{"status"},
		),
		PendingPayments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyisp_pending_payments",
				Help: "Number of unmatched M-Pesa receipts awaiting resolution",
			},
		),
		ExpiredSweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "easyisp_expired_sweeps_total",
				Help: "Total number of expiry sweep runs",
			},
		),
		SubscribersSuspended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "easyisp_subscribers_suspended_total",
				Help: "Total number of subscribers moved to expired by the sweeper",
			},
		),

		// Policy encoder metrics
		PolicyEncodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_policy_encodes_total",
				Help: "Total number of rate-limit strings encoded",
			},
			[]string{"vendor"},
		),
		PolicyRejectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyisp_policy_rejects_total",
				Help: "Total number of policies rejected by token validation",
			},
			[]string{"reason"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.ActivePollers,
		m.PollerRefreshesTotal,
		m.ReconciliationsTotal,
		m.PendingPayments,
		m.ExpiredSweepsTotal,
		m.SubscribersSuspended,
		m.PolicyEncodesTotal,
		m.PolicyRejectsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
