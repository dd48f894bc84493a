package clock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	driftGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clock_drift_seconds",
		Help: "Latest drift of an auxiliary clock from its frozen baseline offset",
	}, []string{"clock_id"})

	driftWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clock_drift_warnings_total",
		Help: "Total drift warnings reported per auxiliary clock",
	}, []string{"clock_id"})

	reconcilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clock_reconciles_total",
		Help: "Total reconciliation measurements per auxiliary clock",
	}, []string{"clock_id"})
)
