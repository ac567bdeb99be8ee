// Package metrics exposes process-wide Prometheus collectors and the /metrics handler.
// Bounded contexts register their own vectors in their metrics packages.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds service-level metrics that do not belong to a single context.
type Metrics struct {
	BuildInfo  *prometheus.GaugeVec
	Dependency *prometheus.GaugeVec
}

// New registers service-level metrics with reg (the default registry when nil).
func New(reg prometheus.Registerer, version string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	m := &Metrics{
		BuildInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "verifyx_build_info",
			Help: "Build metadata; always 1",
		}, []string{"version"}),
		Dependency: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "verifyx_dependency_up",
			Help: "Whether an external dependency answered its last health check (1) or not (0)",
		}, []string{"dependency"}),
	}
	m.BuildInfo.WithLabelValues(version).Set(1)
	return m
}

// ObserveDependency records the outcome of a health check.
func (m *Metrics) ObserveDependency(name string, err error) {
	v := 1.0
	if err != nil {
		v = 0
	}
	m.Dependency.WithLabelValues(name).Set(v)
}

// RegisterDBStats exports database/sql pool statistics under the given name.
func RegisterDBStats(reg prometheus.Registerer, db *sql.DB, name string) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return reg.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
