package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	codesStampedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_codes_stamped_total",
		Help: "Total trigger codes transmitted",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trigger_batch_duration_seconds",
		Help:    "Wall time spent transmitting a trigger batch",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)
