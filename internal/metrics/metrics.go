package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the chatbot on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	AnswersTotal   *prometheus.CounterVec
	AnswerDuration *prometheus.HistogramVec

	IndexBuildsTotal *prometheus.CounterVec
	IndexChunks      prometheus.Gauge

	SessionsActive prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragchat_answers_total",
				Help: "Total number of handled inputs by kind and status",
			},
			[]string{"kind", "status"},
		),
		AnswerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragchat_answer_duration_seconds",
				Help:    "Duration of answer calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"kind"},
		),
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragchat_index_builds_total",
				Help: "Index startups by result (rebuilt or loaded)",
			},
			[]string{"result"},
		),
		IndexChunks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ragchat_index_chunks",
				Help: "Number of chunks in the loaded index",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ragchat_sessions_active",
				Help: "Number of live web sessions",
			},
		),
	}

	m.registry.MustRegister(
		m.AnswersTotal,
		m.AnswerDuration,
		m.IndexBuildsTotal,
		m.IndexChunks,
		m.SessionsActive,
	)
	return m
}

// ObserveAnswer records one answer call. It satisfies conversation.Observer.
func (m *Metrics) ObserveAnswer(kind string, err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AnswersTotal.WithLabelValues(kind, status).Inc()
	m.AnswerDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveIndex records how the index was obtained at startup.
func (m *Metrics) ObserveIndex(rebuilt bool, chunks int) {
	result := "loaded"
	if rebuilt {
		result = "rebuilt"
	}
	m.IndexBuildsTotal.WithLabelValues(result).Inc()
	m.IndexChunks.Set(float64(chunks))
}

// SetSessions reports the number of live sessions.
func (m *Metrics) SetSessions(n int) { m.SessionsActive.Set(float64(n)) }

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
