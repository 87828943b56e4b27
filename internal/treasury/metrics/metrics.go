package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the treasury core.
type Metrics struct {
	TreasuriesCreated prometheus.Counter
	Deposits          prometheus.Counter
	Withdrawals       prometheus.Counter
	Freezes           prometheus.Counter
}

// New creates a Metrics instance with all treasury metrics registered.
func New() *Metrics {
	return &Metrics{
		TreasuriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_treasuries_created_total",
			Help: "Total number of treasuries created",
		}),
		Deposits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_treasury_deposits_total",
			Help: "Total number of deposits recorded",
		}),
		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_treasury_withdrawals_total",
			Help: "Total number of withdrawal transactions executed",
		}),
		Freezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_treasury_freezes_total",
			Help: "Total number of treasury freezes",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.TreasuriesCreated.Inc()
	}
}

func (m *Metrics) IncrementDeposits() {
	if m != nil {
		m.Deposits.Inc()
	}
}

func (m *Metrics) IncrementWithdrawals() {
	if m != nil {
		m.Withdrawals.Inc()
	}
}

func (m *Metrics) IncrementFreezes() {
	if m != nil {
		m.Freezes.Inc()
	}
}
