package audio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buffersValidatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_buffers_validated_total",
		Help: "Total buffers that passed validation",
	})

	validationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_validation_errors_total",
		Help: "Total buffer validation failures by reason",
	}, []string{"reason"})

	resamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_resamples_total",
		Help: "Total buffers resampled to the device rate",
	})
)
