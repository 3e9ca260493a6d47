package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Codec metrics
	codecOperationsTotal   *prometheus.CounterVec
	codecOperationDuration *prometheus.HistogramVec
	codecBytesTotal        *prometheus.CounterVec
	compressionRatio       prometheus.Histogram

	// Vault operation metrics
	vaultOperationsTotal   *prometheus.CounterVec
	vaultOperationDuration *prometheus.HistogramVec
	vaultArtifactsTotal    prometheus.Gauge
	vaultDataSizeBytes     prometheus.Gauge

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics on the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates and registers all Prometheus metrics on reg.
// Tests pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// HTTP request metrics
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wz_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wz_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wz_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		// Codec metrics
		codecOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wz_codec_operations_total",
				Help: "Total number of compress and decompress operations",
			},
			[]string{"operation", "status"},
		),

		codecOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wz_codec_operation_duration_seconds",
				Help:    "Codec operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		codecBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wz_codec_bytes_total",
				Help: "Total bytes consumed and produced by the codec",
			},
			[]string{"operation", "direction"},
		),

		compressionRatio: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wz_compression_ratio",
				Help:    "Artifact size divided by input size",
				Buckets: prometheus.ExponentialBuckets(0.125, 2, 9),
			},
		),

		// Vault operation metrics
		vaultOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wz_vault_operations_total",
				Help: "Total number of vault operations",
			},
			[]string{"operation", "status"},
		),

		vaultOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wz_vault_operation_duration_seconds",
				Help:    "Vault operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		vaultArtifactsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wz_vault_artifacts_total",
				Help: "Number of artifacts currently stored in the vault",
			},
		),

		vaultDataSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wz_vault_data_size_bytes",
				Help: "Total compressed size of stored artifacts in bytes",
			},
		),

		// Authentication metrics
		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wz_auth_requests_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"status"},
		),

		// Health check metrics
		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wz_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCodecOperation records a compress or decompress call
func (m *Metrics) RecordCodecOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.codecOperationsTotal.WithLabelValues(operation, status).Inc()
	m.codecOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCodecBytes records the byte volume moved through the codec
func (m *Metrics) RecordCodecBytes(operation string, in, out int) {
	m.codecBytesTotal.WithLabelValues(operation, "in").Add(float64(in))
	m.codecBytesTotal.WithLabelValues(operation, "out").Add(float64(out))
}

// ObserveCompressionRatio records the artifact/input size ratio of a compression
func (m *Metrics) ObserveCompressionRatio(ratio float64) {
	m.compressionRatio.Observe(ratio)
}

// RecordVaultOperation records a vault operation
func (m *Metrics) RecordVaultOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.vaultOperationsTotal.WithLabelValues(operation, status).Inc()
	m.vaultOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateVaultStats updates vault occupancy statistics
func (m *Metrics) UpdateVaultStats(artifacts int, dataSize int64) {
	m.vaultArtifactsTotal.Set(float64(artifacts))
	m.vaultDataSizeBytes.Set(float64(dataSize))
}

// RecordAuth records an authentication attempt outcome
func (m *Metrics) RecordAuth(status string) {
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Record request in flight
		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Call the original handler
		handler(rw, r)

		// Record metrics
		duration := time.Since(start)
		m.RecordHTTPRequest(method, endpoint, rw.statusCode, duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
