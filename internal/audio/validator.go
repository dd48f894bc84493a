package audio

import (
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// CheckMode selects amplitude validation behavior.
type CheckMode string

const (
	// CheckNone disables RMS validation.
	CheckNone CheckMode = "none"
	// CheckWholeFile compares whole-buffer RMS per channel.
	CheckWholeFile CheckMode = "wholefile"
	// CheckWindowed compares the maximum RMS over a sliding 10 ms window
	// per channel.
	CheckWindowed CheckMode = "windowed"
)

// rmsWindowSeconds is the sliding window used by CheckWindowed.
const rmsWindowSeconds = 0.01

// Validator normalizes raw sample matrices into canonical playback
// buffers: range and shape checks, optional resampling to the device
// rate, stereo broadcast, RMS safety validation and the silent lead-in
// frame.
type Validator struct {
	DeviceRate int
	StimRate   int
	StimRMS    float64
	Check      CheckMode
	// SuppressResample passes mismatched-rate audio through unchanged
	// and lets the device play it at the wrong rate.
	SuppressResample bool

	report *errors.Report
	logger logger.Logger
}

// NewValidator creates a validator. report receives non-fatal
// conditions (rate mismatch, under-level audio); it may be nil.
func NewValidator(deviceRate, stimRate int, stimRMS float64, check CheckMode,
	suppressResample bool, report *errors.Report, log logger.Logger) *Validator {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Validator{
		DeviceRate:       deviceRate,
		StimRate:         stimRate,
		StimRMS:          stimRMS,
		Check:            check,
		SuppressResample: suppressResample,
		report:           report,
		logger:           log.WithField("component", "buffer_validator"),
	}
}

// RateMismatch reports whether stimulus and device sample rates differ.
func (v *Validator) RateMismatch() bool {
	return v.StimRate != v.DeviceRate
}

// Validate converts a sample matrix into the canonical stereo buffer.
// The matrix is row-major: with one or two rows it is treated as
// channel-first, otherwise as time-major with one or two columns. Mono
// input is broadcast to two identical channels.
//
// Over-level audio (measured RMS more than 6 dB above the stated
// stimulus RMS) fails hard. Under-level audio only warns: quiet stimuli
// are a data-quality problem, not a safety one.
func (v *Validator) Validate(samples [][]float64) (*Buffer, error) {
	if err := checkRange(samples); err != nil {
		validationErrorsTotal.WithLabelValues("out_of_range").Inc()
		return nil, err
	}

	chans, err := normalizeShape(samples)
	if err != nil {
		validationErrorsTotal.WithLabelValues("shape").Inc()
		return nil, err
	}

	if v.RateMismatch() {
		if v.SuppressResample {
			v.warn(errors.WarningTypeDeviceMismatch,
				"stimulus rate %d != device rate %d; resampling suppressed, device will play at the mismatched rate",
				v.StimRate, v.DeviceRate)
		} else {
			n := ResampledLength(len(chans[0]), v.StimRate, v.DeviceRate)
			v.warn(errors.WarningTypeDeviceMismatch,
				"resampling %d samples from %d Hz to %d Hz; this costs processing time and can compromise timing",
				len(chans[0]), v.StimRate, v.DeviceRate)
			for i := range chans {
				chans[i] = Resample(chans[i], n)
			}
			resamplesTotal.Inc()
		}
	}

	left := chans[0]
	right := left
	if len(chans) == 2 {
		right = chans[1]
	}

	if v.Check != CheckNone {
		if err := v.checkLevels(left, right); err != nil {
			validationErrorsTotal.WithLabelValues("level_exceeded").Inc()
			return nil, err
		}
	}

	// Drop an existing silent lead-in before prepending a fresh one so
	// re-validating a canonical buffer does not stack lead-in frames.
	if len(left) > 0 && left[0] == 0 && right[0] == 0 {
		left = left[1:]
		right = right[1:]
	}

	data := make([]float64, 0, 2*(len(left)+1))
	data = append(data, 0, 0)
	data = append(data, interleave(left, right)...)

	buffersValidatedTotal.Inc()
	return &Buffer{Data: data, SampleRate: v.DeviceRate}, nil
}

// ValidateMono is a convenience wrapper for one-dimensional input.
func (v *Validator) ValidateMono(samples []float64) (*Buffer, error) {
	return v.Validate([][]float64{samples})
}

// checkLevels applies the RMS policy against the stated stimulus RMS.
func (v *Validator) checkLevels(left, right []float64) error {
	var maxRMS float64
	switch v.Check {
	case CheckWholeFile:
		maxRMS = RMS(left)
		if r := RMS(right); r > maxRMS {
			maxRMS = r
		}
	case CheckWindowed:
		win := int(float64(v.DeviceRate) * rmsWindowSeconds)
		maxRMS = MaxWindowedRMS(left, win)
		if r := MaxWindowedRMS(right, win); r > maxRMS {
			maxRMS = r
		}
	default:
		return nil
	}

	if maxRMS > 2*v.StimRMS {
		return levelExceededError(maxRMS, v.StimRMS)
	}
	if maxRMS < 0.5*v.StimRMS {
		v.warn(errors.WarningTypeUnderLevel,
			"stimulus max RMS (%g) is more than 6 dB below stated RMS (%g)", maxRMS, v.StimRMS)
	}
	return nil
}

func (v *Validator) warn(wtype errors.WarningType, format string, args ...interface{}) {
	if v.report != nil {
		v.report.Add(wtype, format, args...)
	}
	v.logger.Warnf(format, args...)
}

// checkRange rejects any sample outside [-1, 1].
func checkRange(samples [][]float64) error {
	idx := 0
	for _, row := range samples {
		for _, s := range row {
			if s > 1.0 || s < -1.0 {
				return outOfRangeError(idx, s)
			}
			idx++
		}
	}
	return nil
}

// normalizeShape converts a row-major matrix into one or two
// equal-length channel slices in time order. A matrix whose first
// dimension is at most 2 is treated as channel-first and transposed.
func normalizeShape(samples [][]float64) ([][]float64, error) {
	rows := len(samples)
	if rows == 0 {
		return nil, shapeError(0, 0, "sound data is empty")
	}
	cols := len(samples[0])
	for _, row := range samples {
		if len(row) != cols {
			return nil, shapeError(rows, len(row), "sound data has ragged rows")
		}
	}
	if cols == 0 {
		return nil, shapeError(rows, 0, "sound data is empty")
	}

	if rows <= 2 {
		// Channel-first orientation.
		chans := make([][]float64, rows)
		for i, row := range samples {
			chans[i] = append([]float64(nil), row...)
		}
		return chans, nil
	}

	if cols > 2 {
		return nil, shapeError(rows, cols, "sound data has more than two channels")
	}

	// Time-major orientation: transpose to channels.
	chans := make([][]float64, cols)
	for c := range chans {
		chans[c] = make([]float64, rows)
		for t, row := range samples {
			chans[c][t] = row[c]
		}
	}
	return chans, nil
}
