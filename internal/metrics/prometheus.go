// Package metrics provides Prometheus metrics for the health gateway.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	requestsInFlight   prometheus.Gauge
	responseSize       *prometheus.HistogramVec
	probesTotal        *prometheus.CounterVec
	probeDuration      *prometheus.HistogramVec
	serviceUp          *prometheus.GaugeVec
	proxyRequestsTotal *prometheus.CounterVec
	proxyDuration      *prometheus.HistogramVec
	errorsLogged       *prometheus.CounterVec
	registeredServices prometheus.Gauge
	healthStatus       prometheus.Gauge
}

var globalMetrics *Metrics

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "service_health_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "service_health_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_health_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		responseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "service_health_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"method", "path"},
		),
		probesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "service_health_probes_total",
				Help: "Total number of liveness probes by resulting status",
			},
			[]string{"service", "status"},
		),
		probeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "service_health_probe_duration_seconds",
				Help:    "Liveness probe duration in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"service"},
		),
		serviceUp: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_health_service_up",
				Help: "Result of the last probe (1 = up, 0 = degraded or down)",
			},
			[]string{"service"},
		),
		proxyRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "service_health_proxy_requests_total",
				Help: "Total number of proxied requests by upstream status",
			},
			[]string{"service", "method", "status"},
		),
		proxyDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "service_health_proxy_request_duration_seconds",
				Help:    "Proxied request duration in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"service", "method"},
		),
		errorsLogged: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "service_health_errors_logged_total",
				Help: "Total number of error log entries",
			},
			[]string{"service", "status_code"},
		),
		registeredServices: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_health_registered_services",
				Help: "Number of services in the registry",
			},
		),
		healthStatus: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_health_health_status",
				Help: "Health status of this process (1 = healthy, 0 = unhealthy)",
			},
		),
	}

	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the response size.
func (m *Metrics) RecordResponseSize(method, path string, size int) {
	if m == nil {
		return
	}
	m.responseSize.WithLabelValues(method, path).Observe(float64(size))
}

// IncRequestsInFlight increments the in-flight requests counter.
func (m *Metrics) IncRequestsInFlight() {
	if m == nil {
		return
	}
	m.requestsInFlight.Inc()
}

// DecRequestsInFlight decrements the in-flight requests counter.
func (m *Metrics) DecRequestsInFlight() {
	if m == nil {
		return
	}
	m.requestsInFlight.Dec()
}

// RecordProbe records the outcome of one liveness probe.
func (m *Metrics) RecordProbe(service, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(service, status).Inc()
	m.probeDuration.WithLabelValues(service).Observe(duration.Seconds())
	if status == "up" {
		m.serviceUp.WithLabelValues(service).Set(1)
	} else {
		m.serviceUp.WithLabelValues(service).Set(0)
	}
}

// RecordProxyRequest records a forwarded request. statusCode is 0 when no
// upstream response was received.
func (m *Metrics) RecordProxyRequest(service, method string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.proxyRequestsTotal.WithLabelValues(service, method, strconv.Itoa(statusCode)).Inc()
	m.proxyDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordErrorLogged counts an error log append.
func (m *Metrics) RecordErrorLogged(service string, statusCode int) {
	if m == nil {
		return
	}
	m.errorsLogged.WithLabelValues(service, strconv.Itoa(statusCode)).Inc()
}

// SetRegisteredServices sets the registry size gauge.
func (m *Metrics) SetRegisteredServices(n int) {
	if m == nil {
		return
	}
	m.registeredServices.Set(float64(n))
}

// SetHealthStatus sets the health status.
func (m *Metrics) SetHealthStatus(healthy bool) {
	if m == nil {
		return
	}
	if healthy {
		m.healthStatus.Set(1)
	} else {
		m.healthStatus.Set(0)
	}
}

// MetricsServer provides a separate HTTP server for Prometheus metrics.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a new metrics server.
func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the metrics server.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", zap.String("addr", ms.server.Addr))
	if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// MetricsMiddleware creates middleware that records HTTP metrics.
// pathLabel maps a request to a bounded label, typically its route template.
func MetricsMiddleware(m *Metrics, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncRequestsInFlight()
			defer m.DecRequestsInFlight()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if pathLabel != nil {
				path = pathLabel(r)
			}

			m.RecordHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
			m.RecordResponseSize(r.Method, path, rw.size)
		})
	}
}

// metricsResponseWriter wraps http.ResponseWriter to capture metrics.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}
