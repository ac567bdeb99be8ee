package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for chain RPC reads.
type Metrics struct {
	ReadDuration *prometheus.HistogramVec
	ReadFailures *prometheus.CounterVec
}

// NewMetrics registers registry collectors with reg (the default registry when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ReadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verifyx_chain_read_duration_seconds",
			Help:    "Latency of registry contract reads in seconds, labeled by method",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method"}),
		ReadFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_chain_read_failures_total",
			Help: "Total number of failed registry reads, labeled by method",
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.ReadDuration.WithLabelValues(method).Observe(seconds)
	if err != nil {
		m.ReadFailures.WithLabelValues(method).Inc()
	}
}
