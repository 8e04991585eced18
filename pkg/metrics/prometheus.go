// Package metrics provides Prometheus metrics for the heroes service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Label values shared by callers.
const (
	OutcomeOK           = "ok"
	OutcomeFailed       = "failed"
	OutcomeShortCircuit = "short_circuit"
)

// Manager manages all Prometheus metrics for the heroes service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// HeroClient
	clientCalls   *prometheus.CounterVec
	clientLatency *prometheus.HistogramVec

	// Search pipeline
	searchTermsSubmitted    prometheus.Counter
	searchTermsDebounced    prometheus.Counter
	searchTermsDeduplicated prometheus.Counter
	searchBlankTerms        prometheus.Counter
	searchFetchesStarted    prometheus.Counter
	searchResultsSuperseded prometheus.Counter
	searchResultsDelivered  prometheus.Counter
	searchSubscriptions     prometheus.Gauge

	// Message log
	messagesLogged  prometheus.Counter
	messagesEvicted prometheus.Counter

	// Backend HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	httpRateLimited     prometheus.Counter
	websocketSessions   prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec
	storedHeroes prometheus.Gauge

	// Seeding queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerActiveCount  prometheus.Gauge
	seedResults        *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

type state struct {
	manager  *Manager
	registry *prometheus.Registry
}

// current holds the manager the Record* functions write to and the registry
// served on /metrics.
var current atomic.Pointer[state] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Handlers created from an earlier GetRegistry keep serving the old
// registry, so call it before wiring /metrics.
func Configure(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	current.Store(&state{manager: m, registry: reg})
	return m
}

func global() *Manager { return current.Load().manager }

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "heroes",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// still recorded, never exported
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.clientCalls = m.counterVec("client_calls_total",
		"HeroClient operations by outcome (ok, failed, short_circuit)", "operation", "outcome")
	m.clientLatency = m.histogramVec("client_call_duration_milliseconds",
		"HeroClient backend round trip in milliseconds", "operation")

	m.searchTermsSubmitted = m.counter("search_terms_submitted_total", "Search terms submitted by the UI")
	m.searchTermsDebounced = m.counter("search_terms_debounced_total", "Search terms replaced by a newer term inside the debounce window")
	m.searchTermsDeduplicated = m.counter("search_terms_deduplicated_total", "Debounced terms dropped because they equal the previous forwarded term")
	m.searchBlankTerms = m.counter("search_blank_terms_total", "Blank terms answered with an empty list without a backend call")
	m.searchFetchesStarted = m.counter("search_fetches_started_total", "Backend searches started by the pipeline")
	m.searchResultsSuperseded = m.counter("search_results_superseded_total", "Search results discarded because a newer term won")
	m.searchResultsDelivered = m.counter("search_results_delivered_total", "Search results delivered to subscribers")
	m.searchSubscriptions = m.gauge("search_subscriptions", "Active search pipeline subscriptions")

	m.messagesLogged = m.counter("messages_logged_total", "Messages added to the message log")
	m.messagesEvicted = m.counter("messages_evicted_total", "Messages evicted from the bounded message log")

	m.httpRequests = m.counterVec("http_requests_total",
		"Backend HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"Backend HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"Backend HTTP error responses by endpoint, method and error type", "endpoint", "method", "error_type")
	m.httpRateLimited = m.counter("http_rate_limited_total", "Backend requests rejected by the rate limiter")
	m.websocketSessions = m.gauge("websocket_sessions", "Open search gateway websocket sessions")

	m.storeLatency = m.histogramVec("store_operation_duration_milliseconds",
		"Hero store operation latency in milliseconds", "driver", "operation")
	m.storedHeroes = m.gauge("stored_heroes", "Number of heroes in the store")

	m.queueSize = m.gauge("seed_queue_size", "Current size of the seed queue")
	m.queueCapacity = m.gauge("seed_queue_capacity", "Capacity of the seed queue")
	m.queueEnqueueRate = m.counter("seed_queue_enqueued_total", "Seed jobs enqueued")
	m.queueDequeueRate = m.counter("seed_queue_dequeued_total", "Seed jobs dequeued")
	m.queueEnqueueErrors = m.counter("seed_queue_enqueue_errors_total", "Seed jobs rejected by the queue")
	m.workerActiveCount = m.gauge("seed_workers_active", "Running seed workers")
	m.seedResults = m.counterVec("seed_results_total", "Seed jobs by outcome", "outcome")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		ConstLabels: m.customLabels,
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// HeroClient.

// RecordClientCall counts a HeroClient operation with its outcome.
func RecordClientCall(operation, outcome string) {
	global().clientCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordClientLatency records a backend round trip in milliseconds.
func RecordClientLatency(operation string, latencyMs float64) {
	global().clientLatency.WithLabelValues(operation).Observe(latencyMs)
}

// Search pipeline.

func RecordSearchTermSubmitted()    { global().searchTermsSubmitted.Inc() }
func RecordSearchTermDebounced()    { global().searchTermsDebounced.Inc() }
func RecordSearchTermDeduplicated() { global().searchTermsDeduplicated.Inc() }
func RecordSearchBlankTerm()        { global().searchBlankTerms.Inc() }
func RecordSearchFetchStarted()     { global().searchFetchesStarted.Inc() }
func RecordSearchResultSuperseded() { global().searchResultsSuperseded.Inc() }
func RecordSearchResultDelivered()  { global().searchResultsDelivered.Inc() }

// AddSearchSubscriptions moves the active subscription gauge by delta.
func AddSearchSubscriptions(delta int) {
	global().searchSubscriptions.Add(float64(delta))
}

// Message log.

func RecordMessageLogged()  { global().messagesLogged.Inc() }
func RecordMessageEvicted() { global().messagesEvicted.Inc() }

// Backend HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	global().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	global().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	global().httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordHTTPRateLimited counts a request rejected by the limiter.
func RecordHTTPRateLimited() {
	global().httpRateLimited.Inc()
}

// AddWebsocketSessions moves the open session gauge by delta.
func AddWebsocketSessions(delta int) {
	global().websocketSessions.Add(float64(delta))
}

// Store.

// RecordStoreLatency records a store operation latency.
func RecordStoreLatency(driver, operation string, latencyMs float64) {
	global().storeLatency.WithLabelValues(driver, operation).Observe(latencyMs)
}

// UpdateStoredHeroes sets the number of stored heroes.
func UpdateStoredHeroes(count int) {
	global().storedHeroes.Set(float64(count))
}

// Seeding.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	global().queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	global().queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	global().queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	global().queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	global().queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	global().workerActiveCount.Set(float64(count))
}

// RecordSeedResult counts a finished seed job.
func RecordSeedResult(outcome string) {
	global().seedResults.WithLabelValues(outcome).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	global().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	global().systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	global().systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry holding the exported metrics.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
