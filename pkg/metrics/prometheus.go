// Package metrics provides Prometheus metrics for the claimmix decomposition service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration.
const (
	defaultRefreshInterval = 10 * time.Second
)

var (
	defaultLatencyBuckets  = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // read-only defaults
	defaultCategoryBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 500}                  //nolint:gochecknoglobals // read-only defaults
)

// Outcome labels for decompositions.
const (
	OutcomeOK               = "ok"
	OutcomeEmptyPeriod      = "empty_period"
	OutcomeCategoryMismatch = "category_mismatch"
	OutcomeInvalidBucket    = "invalid_bucket"
	OutcomeCanceled         = "canceled"
)

// Manager manages all Prometheus metrics for the claimmix service.
type Manager struct {
	namespace       string
	subsystem       string
	metricPrefix    string
	latencyBuckets  []float64
	categoryBuckets []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Decomposition metrics
	decompositions       *prometheus.CounterVec
	decompositionLatency prometheus.Histogram
	decompositionBuckets prometheus.Histogram
	lastSeverityEffect   prometheus.Gauge
	lastMixEffect        prometheus.Gauge
	lastTotalChange      prometheus.Gauge
	averageRequests      prometheus.Counter
	batchSize            prometheus.Histogram
	workerCount          prometheus.Gauge

	// Result cache metrics
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
	globalManager = NewMetricsManager(WithRegistry(customRegistry))
}

// NewMetricsManager creates a new metrics manager with default configuration.
func NewMetricsManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "claimmix",
		subsystem:       "decomposition",
		latencyBuckets:  defaultLatencyBuckets,
		categoryBuckets: defaultCategoryBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval returns how often gauges sampled from the runtime should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.decompositions = auto.NewCounterVec(
		m.counterOpts("decompositions_total", "Total number of decompositions by outcome"),
		[]string{"outcome"},
	)
	m.decompositionLatency = auto.NewHistogram(m.histogramOpts(
		"decomposition_latency_microseconds",
		"Histogram of engine latency in microseconds",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	))
	m.decompositionBuckets = auto.NewHistogram(m.histogramOpts(
		"decomposition_categories",
		"Number of categories per decomposition",
		m.categoryBuckets,
	))
	m.lastSeverityEffect = auto.NewGauge(m.gaugeOpts("last_severity_effect", "Severity effect of the most recent decomposition"))
	m.lastMixEffect = auto.NewGauge(m.gaugeOpts("last_mix_effect", "Mix effect of the most recent decomposition"))
	m.lastTotalChange = auto.NewGauge(m.gaugeOpts("last_total_change", "Total change of the most recent decomposition"))
	m.averageRequests = auto.NewCounter(m.counterOpts("average_requests_total", "Total number of standalone average severity requests"))
	m.batchSize = auto.NewHistogram(m.histogramOpts(
		"batch_size",
		"Number of pairs per batch request",
		[]float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured parallelism for batch requests"))

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Decompositions served from the result cache"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Decompositions not found in the result cache"))
	m.cacheEvictions = auto.NewCounter(m.counterOpts("cache_evictions_total", "Entries evicted from the result cache"))
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("cache_entries", "Current number of cached results"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total errors by component and error type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error", m.latencyBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordDecomposition counts a decomposition by outcome.
func RecordDecomposition(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.decompositions.WithLabelValues(outcome).Inc()
}

// RecordDecompositionLatency records engine latency.
func RecordDecompositionLatency(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.decompositionLatency.Observe(float64(d.Microseconds()))
}

// RecordDecompositionCategories records the number of categories in a decomposition.
func RecordDecompositionCategories(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.decompositionBuckets.Observe(float64(n))
}

// UpdateLastEffects publishes the effects of the most recent decomposition.
func UpdateLastEffects(severityEffect, mixEffect, totalChange float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.lastSeverityEffect.Set(severityEffect)
	globalManager.lastMixEffect.Set(mixEffect)
	globalManager.lastTotalChange.Set(totalChange)
}

// RecordAverageRequest increments the standalone average counter.
func RecordAverageRequest() {
	if !globalManager.enabled {
		return
	}
	globalManager.averageRequests.Inc()
}

// RecordBatchSize records the size of a batch request.
func RecordBatchSize(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchSize.Observe(float64(n))
}

// UpdateWorkerCount sets the configured batch parallelism.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheEviction increments the cache eviction counter.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// UpdateCacheEntries sets the number of cached results.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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

// RefreshInterval returns how often the global manager expects runtime gauges to be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
