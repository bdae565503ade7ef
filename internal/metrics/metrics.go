package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Question metrics
	QuestionsTotal         *prometheus.CounterVec
	QuestionDurationSecond *prometheus.HistogramVec

	// Retrieval metrics
	RetrievalHits      *prometheus.HistogramVec
	RetrievalErrors    *prometheus.CounterVec
	IndexedEventsTotal prometheus.Gauge

	// LLM metrics
	LLMRequestsTotal     *prometheus.CounterVec
	LLMDurationSeconds   *prometheus.HistogramVec
	LLMProviderFallbacks *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Question metrics
		QuestionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmu_questions_total",
				Help: "Total number of questions answered by intent and status",
			},
			[]string{"intent", "status"}, // status: success, error
		),

		QuestionDurationSecond: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tmu_question_duration_seconds",
				Help:    "Question answering duration in seconds by intent",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30}, // lookups are sub-ms, RAG can take tens of seconds
			},
			[]string{"intent"},
		),

		// Retrieval metrics
		RetrievalHits: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tmu_retrieval_hits",
				Help:    "Number of documents returned per retrieval by source",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"source"}, // source: bm25, vector, hybrid
		),

		RetrievalErrors: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmu_retrieval_errors_total",
				Help: "Total number of retrieval failures by source",
			},
			[]string{"source"},
		),

		IndexedEventsTotal: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "tmu_indexed_events",
				Help: "Number of event records currently indexed",
			},
		),

		// LLM metrics
		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmu_llm_requests_total",
				Help: "Total number of LLM requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tmu_llm_duration_seconds",
				Help:    "LLM request duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),

		LLMProviderFallbacks: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmu_llm_provider_fallbacks_total",
				Help: "Total number of switches from the primary LLM provider to the fallback",
			},
			[]string{"from", "to"},
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmu_http_errors_total",
				Help: "Total HTTP errors by type",
			},
			[]string{"error_type"}, // error_type: bad_request, rate_limit, internal, not_ready
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmu_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: chat, global
		),
	}

	return m
}

// RecordQuestion records a handled question with its intent and outcome
func (m *Metrics) RecordQuestion(intent, status string, duration float64) {
	m.QuestionsTotal.WithLabelValues(intent, status).Inc()
	m.QuestionDurationSecond.WithLabelValues(intent).Observe(duration)
}

// RecordRetrieval records the number of documents a retrieval returned
func (m *Metrics) RecordRetrieval(source string, hits int) {
	m.RetrievalHits.WithLabelValues(source).Observe(float64(hits))
}

// RecordRetrievalError records a retrieval failure
func (m *Metrics) RecordRetrievalError(source string) {
	m.RetrievalErrors.WithLabelValues(source).Inc()
}

// SetIndexedEvents records the current number of indexed event records
func (m *Metrics) SetIndexedEvents(n int) {
	m.IndexedEventsTotal.Set(float64(n))
}

// RecordLLMRequest records an LLM request with status
func (m *Metrics) RecordLLMRequest(provider, status string, duration float64) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordLLMFallback records a provider switch
func (m *Metrics) RecordLLMFallback(from, to string) {
	m.LLMProviderFallbacks.WithLabelValues(from, to).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}
