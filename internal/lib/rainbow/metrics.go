package rainbow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promTokenCount = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "rainbow",
		Name:      "token_count",
	})
	promSupply = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "rainbow",
		Name:      "supply",
	}, []string{"symbol"})
	promMaxSupply = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "rainbow",
		Name:      "max_supply",
	}, []string{"symbol"})
	promStakeRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "rainbow",
		Name:      "stake_rows",
	}, []string{"symbol"})
	promActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "rainbow",
		Name:      "actions_total",
	}, []string{"action", "outcome"})
)

// SetSupplyMetrics publishes one symbol's gauges; the daemon refresh loop
// calls this per scope.
func SetSupplyMetrics(st CurrencyStats, stakeRows int) {
	sym := st.Code().String()
	promSupply.WithLabelValues(sym).Set(float64(st.Supply.Amount))
	promMaxSupply.WithLabelValues(sym).Set(float64(st.MaxSupply.Amount))
	promStakeRows.WithLabelValues(sym).Set(float64(stakeRows))
}

// SetTokenCount publishes the number of symbol scopes.
func SetTokenCount(n int) {
	promTokenCount.Set(float64(n))
}

func countAction(action string, err error) {
	outcome := "applied"
	if err != nil {
		outcome = "failed"
	}
	promActions.WithLabelValues(action, outcome).Inc()
}
