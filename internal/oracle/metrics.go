package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for oracle calls.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	CallFailures *prometheus.CounterVec
	Retries      *prometheus.CounterVec
}

// NewMetrics registers oracle collectors with reg (the default registry when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		CallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verifyx_oracle_call_duration_seconds",
			Help:    "Latency of AI oracle calls in seconds, labeled by check",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"check"}),
		CallFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_oracle_call_failures_total",
			Help: "Total number of failed AI oracle calls, labeled by check and category",
		}, []string{"check", "category"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_oracle_retries_total",
			Help: "Total number of retried AI oracle calls, labeled by check",
		}, []string{"check"}),
	}
}

func (m *Metrics) observe(check Check, seconds float64, err error) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(string(check)).Observe(seconds)
	if err != nil {
		m.CallFailures.WithLabelValues(string(check), string(CategoryOf(err))).Inc()
	}
}

func (m *Metrics) retry(check Check) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(string(check)).Inc()
}
