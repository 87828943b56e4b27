package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the proposal state machine.
type Metrics struct {
	Created    *prometheus.CounterVec
	Signatures prometheus.Counter
	Executed   *prometheus.CounterVec
	Cancelled  prometheus.Counter
}

// New creates a Metrics instance with all proposal metrics registered.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_proposals_created_total",
			Help: "Total number of proposals created, by category",
		}, []string{"category"}),
		Signatures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_proposal_signatures_total",
			Help: "Total number of proposal signatures recorded",
		}),
		Executed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_proposals_executed_total",
			Help: "Total number of proposals executed, by category",
		}, []string{"category"}),
		Cancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_proposals_cancelled_total",
			Help: "Total number of proposals cancelled",
		}),
	}
}

func (m *Metrics) IncrementCreated(category string) {
	if m != nil {
		m.Created.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncrementSignatures() {
	if m != nil {
		m.Signatures.Inc()
	}
}

func (m *Metrics) IncrementExecuted(category string) {
	if m != nil {
		m.Executed.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncrementCancelled() {
	if m != nil {
		m.Cancelled.Inc()
	}
}
