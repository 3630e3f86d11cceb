package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for HTTP request handling.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
}

// NewMetrics creates the HTTP metrics collectors. The metrics are not
// registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	labels := []string{"method", "path", "status"}
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, labels),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, labels),
		requestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "Histogram of HTTP request sizes in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}, labels),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Histogram of HTTP response sizes in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}, labels),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.requestSize,
		m.responseSize,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveHTTPRequest records one completed request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration float64, requestSize, responseSize int64) {
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration)
	m.requestSize.WithLabelValues(method, path, status).Observe(float64(requestSize))
	m.responseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))
}

// normalizePath converts paths with dynamic segments to route patterns
// to prevent cardinality explosion in metrics.
func normalizePath(path string) string {
	staticRoutes := map[string]bool{
		"/":               true,
		"/feed/for-you":   true,
		"/feed/following": true,
		"/feed/explore":   true,
		"/health":         true,
		"/ready":          true,
		"/metrics":        true,
	}

	if staticRoutes[path] {
		return path
	}

	// /users/{id} style paths (future profile endpoints)
	if strings.HasPrefix(path, "/users/") {
		parts := strings.Split(path, "/")
		if len(parts) == 3 && parts[2] != "" {
			return "/users/{id}"
		}
	}

	// Fallback: return as-is so new routes are not silently merged.
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status
// code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// HTTPMetrics is a middleware that records HTTP request metrics.
// Health check endpoints are excluded to avoid noise.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
