package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions   *prometheus.CounterVec
	StoreErrors prometheus.Counter
	Degraded    prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_ratelimit_decisions_total",
			Help: "Rate limit decisions, labeled by route class and outcome",
		}, []string{"class", "outcome"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_ratelimit_store_errors_total",
			Help: "Total number of counter store failures",
		}),
		Degraded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "verifyx_ratelimit_degraded",
			Help: "Whether limits are served from the in-process fallback store (1) or not (0)",
		}),
	}
}
