package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application metrics. Defined here and registered by the metrics server;
// the engine increments them as operations resolve.

var (
	// OperationsTotal counts engine operations by name and outcome.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifegame_operations_total",
			Help: "Total number of game operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// QuotaRejectionsTotal counts attempts turned away at the daily limit.
	QuotaRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifegame_quota_rejections_total",
			Help: "Total number of operations rejected by a daily quota",
		},
		[]string{"operation"},
	)

	// ExchangeCancellationsTotal counts requests removed by the sweep.
	ExchangeCancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wifegame_exchange_cancellations_total",
			Help: "Total number of exchange requests auto-cancelled after ownership changes",
		},
	)

	// ContestOutcomesTotal counts resolved contest attempts by result.
	ContestOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifegame_contest_outcomes_total",
			Help: "Total number of resolved contest attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Register registers all application metrics on the given registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		OperationsTotal,
		QuotaRejectionsTotal,
		ExchangeCancellationsTotal,
		ContestOutcomesTotal,
	)
}
