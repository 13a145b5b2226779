// Package metrics provides Prometheus metrics for the keymood service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Rule scoring is sub-millisecond; model
// calls may cross the network.
var defaultLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // immutable defaults

// Manager manages all Prometheus metrics for the keymood service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction metrics
	predictions      *prometheus.CounterVec
	scoringLatency   prometheus.Histogram
	missingInput     prometheus.Counter
	invalidKeystroke prometheus.Counter
	batchSize        prometheus.Histogram

	// Model metrics
	modelCalls        *prometheus.CounterVec
	modelLatency      prometheus.Histogram
	modelLoaded       prometheus.Gauge
	modelBreakerState prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	rateLimited         prometheus.Counter

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "keymood",
		subsystem:        "emotion",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.predictions = m.counterVec("predictions_total",
		"Predictions served, by final emotion and how it was decided", "emotion", "decision")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"End-to-end prediction latency in milliseconds, model call included", m.histogramBuckets)
	m.missingInput = m.counter("missing_input_total",
		"Requests rejected because no features were supplied")
	m.invalidKeystroke = m.counter("invalid_keystrokes_total",
		"Keystroke samples rejected during feature extraction")
	m.batchSize = m.histogram("batch_size",
		"Number of samples per batch request", prometheus.ExponentialBuckets(1, 2, 10))

	m.modelCalls = m.counterVec("model_calls_total",
		"Model predictor calls by outcome (ok, unavailable, invalid)", "outcome")
	m.modelLatency = m.histogram("model_latency_milliseconds",
		"Model predictor call latency in milliseconds", m.histogramBuckets)
	m.modelLoaded = m.gauge("model_loaded",
		"1 when a model predictor is configured and loaded")
	m.modelBreakerState = m.gauge("model_breaker_state",
		"Remote model circuit breaker state (0 closed, 1 half-open, 2 open)")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"HTTP errors by endpoint, method and error type", "endpoint", "method", "error_type")
	m.rateLimited = m.counter("rate_limited_total",
		"Predict requests rejected by the rate limiter")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds", m.histogramBuckets)
}

// RecordPrediction counts a served prediction.
func RecordPrediction(emotion, decision string) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictions.WithLabelValues(emotion, decision).Inc()
}

// RecordScoringLatency records prediction latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordMissingInput counts a request without features.
func RecordMissingInput() {
	if !globalManager.enabled {
		return
	}
	globalManager.missingInput.Inc()
}

// RecordInvalidKeystrokes counts a rejected keystroke sample.
func RecordInvalidKeystrokes() {
	if !globalManager.enabled {
		return
	}
	globalManager.invalidKeystroke.Inc()
}

// RecordBatchSize observes the size of a batch request.
func RecordBatchSize(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchSize.Observe(float64(n))
}

// RecordModelCall counts a model call and its latency. outcome is ok, unavailable or invalid.
func RecordModelCall(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelCalls.WithLabelValues(outcome).Inc()
	globalManager.modelLatency.Observe(latencyMs)
}

// UpdateModelLoaded sets whether a model predictor is active.
func UpdateModelLoaded(loaded bool) {
	if !globalManager.enabled {
		return
	}
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// UpdateModelBreakerState records the breaker state by name: closed, half-open or open.
func UpdateModelBreakerState(state string) {
	if !globalManager.enabled {
		return
	}
	switch state {
	case "open":
		globalManager.modelBreakerState.Set(2)
	case "half-open":
		globalManager.modelBreakerState.Set(1)
	default:
		globalManager.modelBreakerState.Set(0)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	if !globalManager.enabled {
		return
	}
	globalManager.rateLimited.Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled turns recording of business metrics on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
