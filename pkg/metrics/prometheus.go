// Package metrics provides Prometheus metrics for the gigmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendRequests *prometheus.CounterVec
	scoringLatency    prometheus.Histogram
	postingsScored    prometheus.Counter
	postingsReturned  *prometheus.HistogramVec

	// Ingestion metrics
	ingestOutcomes *prometheus.CounterVec

	// Catalog metrics
	catalogSize       prometheus.Gauge
	profileCount      prometheus.Gauge
	repositoryLatency *prometheus.HistogramVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessed         prometheus.Counter
	workerErrors            *prometheus.CounterVec
	workerProcessingLatency prometheus.Histogram

	// Upstream metrics
	upstreamSyncs    *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamPostings prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "gigmatch",
		subsystem:        "recommender",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.recommendRequests = m.counterVec("recommend_requests_total", "Recommendation requests by view", "view")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Time spent scoring a catalog for one request")
	m.postingsScored = m.counter("postings_scored_total", "Postings scored across all requests")
	m.postingsReturned = m.histogramVec("postings_returned", "Postings returned per recommendation request",
		prometheus.LinearBuckets(0, 5, 21), "view")

	m.ingestOutcomes = m.counterVec("ingest_total", "Posting submissions by outcome", "outcome")

	m.catalogSize = m.gauge("catalog_postings", "Postings currently in the catalog")
	m.profileCount = m.gauge("catalog_profiles", "Profiles currently stored")
	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Repository operation latency",
		m.histogramBuckets, "operation")

	m.queueSize = m.gauge("queue_size", "Current size of the ingest queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the ingest queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Ingest queue utilization (size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueues by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Ingest workers running")
	m.workerProcessed = m.counter("worker_processed_total", "Jobs processed by ingest workers")
	m.workerErrors = m.counterVec("worker_errors_total", "Ingest worker failures by reason", "reason")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Ingest job processing latency")

	m.upstreamSyncs = m.counterVec("upstream_syncs_total", "Upstream catalog sync runs by status", "status")
	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds", "Upstream request latency",
		m.histogramBuckets, "resource")
	m.upstreamPostings = m.counter("upstream_postings_total", "Postings pulled from upstream")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration",
		m.histogramBuckets, "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint and type",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
}

// RecordRecommendation counts a recommendation request for view.
func RecordRecommendation(view string) {
	globalManager.recommendRequests.WithLabelValues(view).Inc()
}

// RecordScoringLatency observes how long one Score call took.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordPostingsScored adds n scored postings.
func RecordPostingsScored(n int) {
	globalManager.postingsScored.Add(float64(n))
}

// RecordPostingsReturned observes the result size for view.
func RecordPostingsReturned(view string, n int) {
	globalManager.postingsReturned.WithLabelValues(view).Observe(float64(n))
}

// RecordIngest counts a posting submission outcome
// (accepted, duplicate, rejected, backpressure).
func RecordIngest(outcome string) {
	globalManager.ingestOutcomes.WithLabelValues(outcome).Inc()
}

func UpdateCatalogSize(count int) { globalManager.catalogSize.Set(float64(count)) }

func UpdateProfileCount(count int) { globalManager.profileCount.Set(float64(count)) }

// RecordRepositoryLatency observes a store operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

func RecordWorkerProcessed() { globalManager.workerProcessed.Inc() }

// RecordWorkerError counts a failed ingest job.
func RecordWorkerError(reason string) {
	globalManager.workerErrors.WithLabelValues(reason).Inc()
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordUpstreamSync counts a sync run by status (ok, error).
func RecordUpstreamSync(status string) {
	globalManager.upstreamSyncs.WithLabelValues(status).Inc()
}

// RecordUpstreamLatency observes an upstream request for resource.
func RecordUpstreamLatency(resource string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(resource).Observe(latencyMs)
}

func RecordUpstreamPostings(n int) { globalManager.upstreamPostings.Add(float64(n)) }

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint counts an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry the global manager exports to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
