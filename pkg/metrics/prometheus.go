// Package metrics provides Prometheus metrics for the mentorpulse service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	recordsIngested  *prometheus.CounterVec
	batchesAccepted  prometheus.Counter
	batchesDuplicate prometheus.Counter

	// Indicator computation
	computations       prometheus.Counter
	computationLatency prometheus.Histogram
	computationErrors  prometheus.Counter
	refreshes          *prometheus.CounterVec
	refreshDuration    prometheus.Histogram

	// Indicator table
	studentsTracked    prometheus.Gauge
	tierDistribution   *prometheus.GaugeVec
	tableUpdateLatency prometheus.Histogram
	tableQueryLatency  prometheus.Histogram

	// Dashboard cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mentorpulse",
		subsystem:        "indicators",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recordsIngested = auto.NewCounterVec(m.counter("records_ingested_total",
		"Records accepted through ingestion by kind"), []string{"kind"})
	m.batchesAccepted = auto.NewCounter(m.counter("batches_accepted_total",
		"Ingestion batches accepted"))
	m.batchesDuplicate = auto.NewCounter(m.counter("batches_duplicate_total",
		"Ingestion batches rejected as duplicates"))

	m.computations = auto.NewCounter(m.counter("computations_total",
		"Student indicator computations"))
	m.computationLatency = auto.NewHistogram(m.histogram("computation_latency_milliseconds",
		"Latency of one student indicator computation in milliseconds"))
	m.computationErrors = auto.NewCounter(m.counter("computation_errors_total",
		"Failed student indicator computations"))
	m.refreshes = auto.NewCounterVec(m.counter("refresh_total",
		"Full dataset refreshes by result"), []string{"result"})
	m.refreshDuration = auto.NewHistogram(m.histogram("refresh_duration_milliseconds",
		"Duration of a full dataset refresh in milliseconds"))

	m.studentsTracked = auto.NewGauge(m.gauge("students_tracked",
		"Students in the indicator table"))
	m.tierDistribution = auto.NewGaugeVec(m.gauge("tier_students",
		"Students per tier in the indicator table"), []string{"tier"})
	m.tableUpdateLatency = auto.NewHistogram(m.histogram("table_update_latency_milliseconds",
		"Indicator table upsert latency in milliseconds"))
	m.tableQueryLatency = auto.NewHistogram(m.histogram("table_query_latency_milliseconds",
		"Indicator table query latency in milliseconds"))

	m.cacheHits = auto.NewCounter(m.counter("dashboard_cache_hits_total",
		"Dashboard cache hits"))
	m.cacheMisses = auto.NewCounter(m.counter("dashboard_cache_misses_total",
		"Dashboard cache misses"))

	m.queueSize = auto.NewGauge(m.gauge("queue_size",
		"Recompute jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity",
		"Maximum number of queued recompute jobs"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio",
		"Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counter("queue_enqueued_total",
		"Recompute jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counter("queue_dequeued_total",
		"Recompute jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total",
		"Recompute jobs rejected by the queue"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count",
		"Configured worker goroutines"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active",
		"Workers currently processing a job"))
	m.workerIdleCount = auto.NewGauge(m.gauge("worker_idle",
		"Workers waiting for a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds",
		"Worker job processing latency in milliseconds"))
	m.workerErrors = auto.NewCounter(m.counter("worker_errors_total",
		"Worker job failures"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counter("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_bytes",
		"Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutines",
		"Number of goroutines"))
}

// RecordRecordsIngested adds n ingested records of the given kind.
func RecordRecordsIngested(kind string, n int) {
	if n > 0 {
		globalManager.recordsIngested.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordBatchAccepted increments the accepted batch counter.
func RecordBatchAccepted() { globalManager.batchesAccepted.Inc() }

// RecordBatchDuplicate increments the duplicate batch counter.
func RecordBatchDuplicate() { globalManager.batchesDuplicate.Inc() }

// RecordComputation records one student computation and its latency.
func RecordComputation(latencyMs float64) {
	globalManager.computations.Inc()
	globalManager.computationLatency.Observe(latencyMs)
}

// RecordComputationError increments the computation error counter.
func RecordComputationError() { globalManager.computationErrors.Inc() }

// RecordRefresh records a full refresh outcome and duration.
func RecordRefresh(success bool, durationMs float64) {
	result := "success"
	if !success {
		result = "failure"
	}
	globalManager.refreshes.WithLabelValues(result).Inc()
	globalManager.refreshDuration.Observe(durationMs)
}

// UpdateStudentsTracked sets the number of students in the indicator table.
func UpdateStudentsTracked(count int) { globalManager.studentsTracked.Set(float64(count)) }

// UpdateTierDistribution replaces the per-tier student gauges.
func UpdateTierDistribution(counts map[string]int) {
	globalManager.tierDistribution.Reset()
	for tier, n := range counts {
		globalManager.tierDistribution.WithLabelValues(tier).Set(float64(n))
	}
}

// TierCount returns the current gauge value for tier.
func TierCount(tier string) (float64, error) {
	g, err := globalManager.tierDistribution.GetMetricWithLabelValues(tier)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrUnknownTier, tier, err)
	}
	return readGauge(g), nil
}

// RecordTableUpdateLatency records an indicator table upsert latency.
func RecordTableUpdateLatency(latencyMs float64) { globalManager.tableUpdateLatency.Observe(latencyMs) }

// RecordTableQueryLatency records an indicator table query latency.
func RecordTableQueryLatency(latencyMs float64) { globalManager.tableQueryLatency.Observe(latencyMs) }

// RecordCacheHit increments the dashboard cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the dashboard cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) { globalManager.workerIdleCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by the package.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
