// Package metrics provides Prometheus metrics for the huntd scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Capture lifecycle
	capturesInserted prometheus.Counter
	capturesDeleted  prometheus.Counter

	// Bonus evaluation - the heart of the service
	evaluationsTotal   *prometheus.CounterVec
	bonusesAwarded     prometheus.Counter
	bonusPointsAwarded prometheus.Counter
	evaluationLatency  prometheus.Histogram

	// Ledger health
	ledgerAppends      prometheus.Counter
	ledgerAppendErrors prometheus.Counter
	ledgerQueryLatency prometheus.Histogram

	// Deferred evaluation queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	deferredDuplicates prometheus.Counter

	// Worker pool
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	resolveLatency          prometheus.Histogram
	resolveMisses           prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking by component
	errorsByComponent *prometheus.CounterVec

	// System health
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "huntd",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.capturesInserted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "captures_inserted_total",
		Help:      "Total number of captures recorded.",
	})
	m.capturesDeleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "captures_deleted_total",
		Help:      "Total number of captures deleted.",
	})

	m.evaluationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_total",
		Help:      "Bonus evaluations by outcome (awarded, no_location, no_match, zero_bonus, storage_error).",
	}, []string{"outcome"})
	m.bonusesAwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bonuses_awarded_total",
		Help:      "Total number of bonus events appended to the ledger.",
	})
	m.bonusPointsAwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bonus_points_awarded_total",
		Help:      "Total bonus points awarded across all captures.",
	})
	m.evaluationLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_latency_ms",
		Help:      "Latency of a full bonus evaluation in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.ledgerAppends = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_appends_total",
		Help:      "Successful bonus ledger appends.",
	})
	m.ledgerAppendErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_append_errors_total",
		Help:      "Failed bonus ledger appends.",
	})
	m.ledgerQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_query_latency_ms",
		Help:      "Latency of ledger read queries in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_queue_size",
		Help:      "Current number of queued deferred evaluations.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_queue_capacity",
		Help:      "Configured capacity of the deferred evaluation queue.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_queue_utilization",
		Help:      "Queue utilization ratio (0.0-1.0).",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_queue_enqueues_total",
		Help:      "Deferred evaluation jobs enqueued.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_queue_dequeues_total",
		Help:      "Deferred evaluation jobs dequeued.",
	})
	m.queueEnqueueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_queue_enqueue_errors_total",
		Help:      "Deferred evaluation jobs rejected on enqueue.",
	})
	m.deferredDuplicates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_duplicates_total",
		Help:      "Deferred evaluations skipped because the capture was already scheduled.",
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of deferred evaluation workers.",
	})
	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_ms",
		Help:      "Latency of deferred job processing in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Deferred jobs that failed processing.",
	})
	m.resolveLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolve_latency_ms",
		Help:      "Latency of late GPS fix resolution in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.resolveMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolve_misses_total",
		Help:      "Deferred jobs for which no GPS fix could be resolved.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and error type.",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes.",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines.",
	})
}

// Evaluation outcome labels recorded by the scoring service.
const (
	OutcomeAwarded      = "awarded"
	OutcomeNoLocation   = "no_location"
	OutcomeNoMatch      = "no_match"
	OutcomeZeroBonus    = "zero_bonus"
	OutcomeStorageError = "storage_error"
)

// RecordCaptureInserted increments the capture insert counter.
func RecordCaptureInserted() {
	globalManager.capturesInserted.Inc()
}

// RecordCaptureDeleted increments the capture delete counter.
func RecordCaptureDeleted() {
	globalManager.capturesDeleted.Inc()
}

// RecordEvaluation records a bonus evaluation outcome.
func RecordEvaluation(outcome string) {
	globalManager.evaluationsTotal.WithLabelValues(outcome).Inc()
}

// RecordBonusAwarded records a successful bonus award of the given points.
func RecordBonusAwarded(points int) {
	globalManager.bonusesAwarded.Inc()
	globalManager.bonusPointsAwarded.Add(float64(points))
}

// RecordEvaluationLatency records the duration of a full evaluation.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordLedgerAppend increments the successful ledger append counter.
func RecordLedgerAppend() {
	globalManager.ledgerAppends.Inc()
}

// RecordLedgerAppendError increments the failed ledger append counter.
func RecordLedgerAppendError() {
	globalManager.ledgerAppendErrors.Inc()
}

// RecordLedgerQueryLatency records the duration of a ledger read.
func RecordLedgerQueryLatency(latencyMs float64) {
	globalManager.ledgerQueryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current deferred queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the deferred queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the deferred queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError increments the enqueue rejection counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordDeferredDuplicate increments the duplicate deferred scheduling counter.
func RecordDeferredDuplicate() {
	globalManager.deferredDuplicates.Inc()
}

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the duration of a deferred job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordResolveLatency records the duration of a GPS fix resolution.
func RecordResolveLatency(latencyMs float64) {
	globalManager.resolveLatency.Observe(latencyMs)
}

// RecordResolveMiss increments the unresolved GPS fix counter.
func RecordResolveMiss() {
	globalManager.resolveMisses.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
