package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for verification sessions.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted *prometheus.CounterVec
	SessionsCancelled prometheus.Counter
	SessionsExpired   prometheus.Counter
	StartConflicts    prometheus.Counter
	OverallConfidence prometheus.Histogram

	CheckFailures   *prometheus.CounterVec
	ChecksDuration  prometheus.Histogram
	SessionsCleaned prometheus.Counter
}

// New registers and returns verification metrics collectors.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_verification_sessions_started_total",
			Help: "Total number of verification sessions started",
		}),
		SessionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_verification_sessions_completed_total",
			Help: "Total number of verification sessions finalized, labeled by result",
		}, []string{"result"}),
		SessionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_verification_sessions_cancelled_total",
			Help: "Total number of verification sessions cancelled by the user",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_verification_sessions_expired_total",
			Help: "Total number of operations refused because the session had expired",
		}),
		StartConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_verification_start_conflicts_total",
			Help: "Total number of starts refused because an active session exists",
		}),
		OverallConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verifyx_verification_overall_confidence",
			Help:    "Distribution of aggregated confidence on finalized sessions",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		CheckFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_verification_check_failures_total",
			Help: "Total number of oracle checks that failed, labeled by step and category",
		}, []string{"step", "category"}),
		ChecksDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verifyx_verification_checks_duration_seconds",
			Help:    "Wall time of a full oracle check run",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		SessionsCleaned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_verification_sessions_cleaned_total",
			Help: "Total number of abandoned sessions removed by the cleanup worker",
		}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	m.SessionsStarted.Inc()
}

func (m *Metrics) IncrementSessionsCompleted(result string) {
	m.SessionsCompleted.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementSessionsCancelled() {
	m.SessionsCancelled.Inc()
}

func (m *Metrics) IncrementSessionsExpired() {
	m.SessionsExpired.Inc()
}

func (m *Metrics) IncrementStartConflicts() {
	m.StartConflicts.Inc()
}

func (m *Metrics) ObserveOverallConfidence(confidence float64) {
	m.OverallConfidence.Observe(confidence)
}

func (m *Metrics) IncrementCheckFailures(step, category string) {
	m.CheckFailures.WithLabelValues(step, category).Inc()
}

func (m *Metrics) ObserveChecksDuration(seconds float64) {
	m.ChecksDuration.Observe(seconds)
}

func (m *Metrics) AddSessionsCleaned(count int) {
	m.SessionsCleaned.Add(float64(count))
}
