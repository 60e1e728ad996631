// Package metrics defines the Prometheus metrics exported by the advisor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level LLM metrics. Provider code records through these so it does
// not need a *Metrics handle; they stay nil until InitGlobal runs.
var (
	LLMTotal           *prometheus.CounterVec
	LLMDuration        *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec
	LLMFallbackLatency *prometheus.HistogramVec
	EmbeddingTotal     *prometheus.CounterVec
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Dialogue metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec
	OffersTotal         prometheus.Counter
	InterestsExtracted  prometheus.Counter

	// LLM metrics
	LLMTotal           *prometheus.CounterVec
	LLMDuration        *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec
	LLMFallbackLatency *prometheus.HistogramVec
	EmbeddingTotal     *prometheus.CounterVec

	// Retrieval metrics
	RetrievalDurationSeconds *prometheus.HistogramVec
	RetrievalResults         prometheus.Histogram
	IndexBuildsTotal         *prometheus.CounterVec
	IndexChunks              prometheus.Gauge

	// Transcript metrics
	TranscriptWritesTotal *prometheus.CounterVec
	TranscriptDropped     prometheus.Counter

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsEvicted prometheus.Counter

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterUsers   prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	m := &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_turns_total",
				Help: "Chat turns by dialogue transition and outcome",
			},
			[]string{"transition", "outcome"}, // outcome: success, fallback, rejected, rate_limited
		),
		TurnDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_turn_duration_seconds",
				Help:    "Chat turn latency by dialogue transition",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"transition"},
		),
		OffersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "advisor_recommendation_offers_total",
			Help: "Recommendation offers appended to elicitation replies",
		}),
		InterestsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "advisor_interests_extracted_total",
			Help: "New interests merged into conversation state",
		}),

		LLMTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_llm_requests_total",
				Help: "LLM generation requests by provider, operation and status",
			},
			[]string{"provider", "operation", "status"},
		),
		LLMDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_llm_duration_seconds",
				Help:    "LLM generation latency by provider and operation",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
			},
			[]string{"provider", "operation"},
		),
		LLMFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_llm_fallback_total",
				Help: "Successful provider fallbacks by source, target and operation",
			},
			[]string{"from", "to", "operation"},
		),
		LLMFallbackLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_llm_fallback_latency_seconds",
				Help:    "Total latency of requests that needed a provider fallback",
				Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 60},
			},
			[]string{"operation"},
		),
		EmbeddingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_embedding_requests_total",
				Help: "Embedding requests by status",
			},
			[]string{"status"},
		),

		RetrievalDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_retrieval_duration_seconds",
				Help:    "Course retrieval latency by strategy",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"strategy"}, // strategy: vector, hybrid
		),
		RetrievalResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_retrieval_results",
			Help:    "Documents returned per retrieval",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
		}),
		IndexBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_index_builds_total",
				Help: "Vector index initializations by source",
			},
			[]string{"source"}, // source: loaded, rebuilt
		),
		IndexChunks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_index_chunks",
			Help: "Chunks held by the vector index",
		}),

		TranscriptWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_transcript_writes_total",
				Help: "Transcript writes by sink and status",
			},
			[]string{"sink", "status"},
		),
		TranscriptDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "advisor_transcript_dropped_total",
			Help: "Transcript writes dropped because the queue was full",
		}),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_sessions_active",
			Help: "Sessions held in memory",
		}),
		SessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "advisor_sessions_evicted_total",
			Help: "Idle sessions evicted",
		}),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_rate_limiter_dropped_total",
				Help: "Requests rejected by rate limiter type",
			},
			[]string{"limiter"}, // limiter: user, embedding
		),
		RateLimiterUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_rate_limiter_users",
			Help: "Users tracked by the per-user rate limiter",
		}),
	}

	return m
}

// InitGlobal publishes m's LLM metrics through the package-level variables.
func InitGlobal(m *Metrics) {
	if m == nil {
		return
	}
	LLMTotal = m.LLMTotal
	LLMDuration = m.LLMDuration
	LLMFallbackTotal = m.LLMFallbackTotal
	LLMFallbackLatency = m.LLMFallbackLatency
	EmbeddingTotal = m.EmbeddingTotal
}

// RecordTurn records a completed chat turn.
func (m *Metrics) RecordTurn(transition, outcome string, duration float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(transition, outcome).Inc()
	if duration > 0 {
		m.TurnDurationSeconds.WithLabelValues(transition).Observe(duration)
	}
}

// RecordOffer records an offer-to-recommend appended to a reply.
func (m *Metrics) RecordOffer() {
	if m == nil {
		return
	}
	m.OffersTotal.Inc()
}

// RecordInterestExtracted records a new interest merged into state.
func (m *Metrics) RecordInterestExtracted() {
	if m == nil {
		return
	}
	m.InterestsExtracted.Inc()
}

// RecordRetrieval records retrieval latency and result count.
func (m *Metrics) RecordRetrieval(strategy string, duration float64, results int) {
	if m == nil {
		return
	}
	m.RetrievalDurationSeconds.WithLabelValues(strategy).Observe(duration)
	m.RetrievalResults.Observe(float64(results))
}

// RecordIndexBuild records how the vector index was initialized.
func (m *Metrics) RecordIndexBuild(source string, chunks int) {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.WithLabelValues(source).Inc()
	m.IndexChunks.Set(float64(chunks))
}

// RecordTranscriptWrite records a transcript sink write.
func (m *Metrics) RecordTranscriptWrite(sink, status string) {
	if m == nil {
		return
	}
	m.TranscriptWritesTotal.WithLabelValues(sink, status).Inc()
}

// RecordTranscriptDropped records a transcript write dropped on a full queue.
func (m *Metrics) RecordTranscriptDropped() {
	if m == nil {
		return
	}
	m.TranscriptDropped.Inc()
}

// SetActiveSessions sets the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordSessionEvicted records idle session evictions.
func (m *Metrics) RecordSessionEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEvicted.Add(float64(n))
}

// RecordRateLimiterDrop records a rate limiter rejection.
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}

// SetRateLimiterUsers sets the number of users tracked by the limiter.
func (m *Metrics) SetRateLimiterUsers(n int) {
	if m == nil {
		return
	}
	m.RateLimiterUsers.Set(float64(n))
}
