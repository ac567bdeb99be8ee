package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential issuance and usage.
type Metrics struct {
	CredentialsIssued   *prometheus.CounterVec
	CredentialsRevoked  prometheus.Counter
	Verifications       *prometheus.CounterVec
	IntegrityFailures   prometheus.Counter
	UsageWriteFailures  *prometheus.CounterVec
	CredentialsAnchored prometheus.Counter
}

// New registers and returns credential metrics collectors.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_credentials_issued_total",
			Help: "Total number of credentials issued, labeled by type",
		}, []string{"type"}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_credentials_revoked_total",
			Help: "Total number of credentials revoked by their holder",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_credentials_verified_total",
			Help: "Total number of public hash verifications, labeled by outcome",
		}, []string{"result"}),
		IntegrityFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_credential_integrity_failures_total",
			Help: "Total number of stored credentials whose content no longer matches their hash",
		}),
		UsageWriteFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verifyx_credential_usage_write_failures_total",
			Help: "Total number of share or verify counter writes that failed",
		}, []string{"kind"}),
		CredentialsAnchored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verifyx_credentials_anchored_total",
			Help: "Total number of credential hashes confirmed on the registry contract",
		}),
	}
}

func (m *Metrics) IncrementIssued(credType string) {
	m.CredentialsIssued.WithLabelValues(credType).Inc()
}

func (m *Metrics) IncrementRevoked() {
	m.CredentialsRevoked.Inc()
}

// IncrementVerified records a public verification. result is one of
// valid, invalid or integrity_failure.
func (m *Metrics) IncrementVerified(result string) {
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementIntegrityFailures() {
	m.IntegrityFailures.Inc()
}

func (m *Metrics) IncrementUsageWriteFailures(kind string) {
	m.UsageWriteFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementAnchored() {
	m.CredentialsAnchored.Inc()
}
