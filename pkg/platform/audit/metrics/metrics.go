package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit publisher.
type Metrics struct {
	QueueDepth      prometheus.Gauge
	EventsEnqueued  prometheus.Counter
	EventsDropped   prometheus.Counter
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// New registers the audit publisher metrics with reg (the default registry when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "verifyx_audit_queue_depth",
			Help: "Current number of events waiting in the audit publisher queue",
		}),
		EventsEnqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_audit_events_enqueued_total",
			Help: "Total number of audit events accepted by the publisher",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the buffer was full",
		}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_audit_persist_failures_total",
			Help: "Total number of audit events the sink failed to persist",
		}, []string{"action"}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "verifyx_audit_persist_duration_seconds",
			Help:    "Time taken by the sink to persist one audit event",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
