// Package metrics provides Prometheus metrics for the waffles tracker.
package metrics

import (
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
	uploads         *prometheus.CounterVec
	linesParsed     prometheus.Counter
	linesSkipped    prometheus.Counter
	keywordFallback prometheus.Counter
	eventsAccepted  prometheus.Counter
	eventsDuplicate prometheus.Counter

	// State
	eventsStored   prometheus.Gauge
	personsTracked prometheus.Gauge
	referenceWeeks prometheus.Gauge
	scoreAnomalies prometheus.Gauge

	// Recompute and persistence
	recomputeDuration prometheus.Histogram
	storeErrors       *prometheus.CounterVec
	ledgerErrors      *prometheus.CounterVec
	drinksRecorded    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "waffles",
		subsystem:        "tracker",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.uploads = auto.NewCounterVec(m.counterOpts("uploads_total", "Chat export uploads by outcome"), []string{"result"})
	m.linesParsed = auto.NewCounter(m.counterOpts("lines_parsed_total", "Chat lines that produced a record"))
	m.linesSkipped = auto.NewCounter(m.counterOpts("lines_skipped_total", "Chat lines skipped as malformed or continuation"))
	m.keywordFallback = auto.NewCounter(m.counterOpts("keyword_fallback_total", "Uploads where no message matched the keyword"))
	m.eventsAccepted = auto.NewCounter(m.counterOpts("events_accepted_total", "Events added to the calendar"))
	m.eventsDuplicate = auto.NewCounter(m.counterOpts("events_duplicate_total", "Events dropped as same person and day"))

	m.eventsStored = auto.NewGauge(m.gaugeOpts("events_stored", "Events currently in the calendar"))
	m.personsTracked = auto.NewGauge(m.gaugeOpts("persons_tracked", "Persons appearing in the ranking"))
	m.referenceWeeks = auto.NewGauge(m.gaugeOpts("reference_weeks", "Expected check-ins since the start date"))
	m.scoreAnomalies = auto.NewGauge(m.gaugeOpts("score_anomalies", "Persons with a negative missed count"))

	m.recomputeDuration = auto.NewHistogram(m.histogramOpts("recompute_duration_milliseconds", "Time to rebuild weeks, ranking and owed list"))
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Event store failures by operation"), []string{"op"})
	m.ledgerErrors = auto.NewCounterVec(m.counterOpts("ledger_errors_total", "Drinks ledger failures by operation"), []string{"op"})
	m.drinksRecorded = auto.NewCounter(m.counterOpts("drinks_recorded_total", "Drinks added through the ledger editor"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint and error type"), []string{"endpoint", "method", "error_type"})

	m.memoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.gcPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// RecordUpload counts an upload with its outcome: ok, empty, error.
func RecordUpload(result string) { globalManager.uploads.WithLabelValues(result).Inc() }

// RecordLines adds parsed and skipped line counts.
func RecordLines(parsed, skipped int) {
	globalManager.linesParsed.Add(float64(parsed))
	globalManager.linesSkipped.Add(float64(skipped))
}

// RecordKeywordFallback counts an upload where the keyword matched nothing.
func RecordKeywordFallback() { globalManager.keywordFallback.Inc() }

// RecordMerge adds accepted and duplicate event counts.
func RecordMerge(accepted, duplicates int) {
	globalManager.eventsAccepted.Add(float64(accepted))
	globalManager.eventsDuplicate.Add(float64(duplicates))
}

// UpdateEventsStored sets the calendar size.
func UpdateEventsStored(n int) { globalManager.eventsStored.Set(float64(n)) }

// UpdatePersonsTracked sets the number of ranked persons.
func UpdatePersonsTracked(n int) { globalManager.personsTracked.Set(float64(n)) }

// UpdateReferenceWeeks sets the expected check-in count.
func UpdateReferenceWeeks(n int) { globalManager.referenceWeeks.Set(float64(n)) }

// UpdateScoreAnomalies sets the number of persons with negative missed.
func UpdateScoreAnomalies(n int) { globalManager.scoreAnomalies.Set(float64(n)) }

// RecordRecomputeLatency observes a recompute duration in milliseconds.
func RecordRecomputeLatency(ms float64) { globalManager.recomputeDuration.Observe(ms) }

// RecordStoreError counts an event store failure for op (load, save).
func RecordStoreError(op string) { globalManager.storeErrors.WithLabelValues(op).Inc() }

// RecordLedgerError counts a ledger failure for op (read, write).
func RecordLedgerError(op string) { globalManager.ledgerErrors.WithLabelValues(op).Inc() }

// RecordDrinks adds drinks entered through the editor.
func RecordDrinks(n int) {
	if n > 0 {
		globalManager.drinksRecorded.Add(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.memoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) { globalManager.goroutineCount.Set(float64(n)) }

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) { globalManager.gcPauseTime.Observe(ms) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
