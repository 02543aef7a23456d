package farm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promPoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "farm",
		Name:      "pool_count",
	})
	promStaked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "farm",
		Name:      "staked_total",
	}, []string{"pool"})
	promRewardsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm",
		Name:      "rewards_minted_total",
	})
	promDevMinted = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm",
		Name:      "dev_minted_total",
	})
	promRewardsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm",
		Name:      "rewards_paid_total",
	})
	promDepositFees = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm",
		Name:      "deposit_fees_total",
	})
	promEmergencyWithdrawals = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm",
		Name:      "emergency_withdrawals_total",
	})
	promOpsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "farm",
		Name:      "operations_failed_total",
	}, []string{"op"})
)
