package sched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	flipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flip_total",
		Help: "Total completed flip sequences",
	})

	swapLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flip_swap_latency_seconds",
		Help:    "Time spent blocked on the display swap sync barrier",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~2s
	})

	callbackFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flip_callback_failures_total",
		Help: "Total flip callbacks that returned an error",
	})
)
