package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy engine.
type Metrics struct {
	Validations    prometheus.Counter
	Denials        *prometheus.CounterVec
	SpendingResets prometheus.Counter
	Updates        prometheus.Counter
}

// New creates a Metrics instance with all policy metrics registered.
func New() *Metrics {
	return &Metrics{
		Validations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_policy_validations_total",
			Help: "Total number of withdrawal validations evaluated",
		}),
		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_policy_denials_total",
			Help: "Total number of withdrawal validations denied, by sub-policy",
		}, []string{"sub_policy"}),
		SpendingResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_policy_spending_resets_total",
			Help: "Total number of spending period resets",
		}),
		Updates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_policy_updates_total",
			Help: "Total number of policy configuration updates",
		}),
	}
}

func (m *Metrics) IncrementValidations() {
	if m != nil {
		m.Validations.Inc()
	}
}

func (m *Metrics) IncrementDenials(subPolicy string) {
	if m != nil {
		m.Denials.WithLabelValues(subPolicy).Inc()
	}
}

func (m *Metrics) IncrementSpendingResets() {
	if m != nil {
		m.SpendingResets.Inc()
	}
}

func (m *Metrics) IncrementUpdates() {
	if m != nil {
		m.Updates.Inc()
	}
}
