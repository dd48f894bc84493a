package audio

import (
	"math"

	"github.com/zsiec/pulse/internal/errors"
)

// DefaultReferenceDB is the conservative fallback used when a device
// class has no calibration entry.
const DefaultReferenceDB = 90.0

// NoiseSourceRMS is the RMS the masker noise stream is generated at.
// Noise is always full scale, so its gain calculation assumes 1.0.
const NoiseSourceRMS = 1.0

// CalibrationProfile maps a device class to the sound-pressure level
// (dB SPL) a full-scale (RMS = 1.0) signal produces on that hardware.
// Loaded once at controller construction and never mutated.
type CalibrationProfile map[string]float64

// DefaultProfile returns the measured reference levels for known
// hardware. The oto and mock values are nominal, not bench-calibrated.
func DefaultProfile() CalibrationProfile {
	return CalibrationProfile{
		"RM1":  108, // approx with the attenuator knob at 12 o'clock
		"RP2":  108,
		"RZ6":  114,
		"oto":  90,
		"mock": 90,
	}
}

// Merge overlays entries from other onto a copy of the profile.
func (p CalibrationProfile) Merge(other map[string]float64) CalibrationProfile {
	out := make(CalibrationProfile, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ReferenceDB looks up the full-scale output level for a device class,
// falling back to DefaultReferenceDB with a reported warning when the
// class is unrecognized.
func (p CalibrationProfile) ReferenceDB(deviceClass string, report *errors.Report) float64 {
	if db, ok := p[deviceClass]; ok {
		return db
	}
	if report != nil {
		report.Add(errors.WarningTypeCalibration,
			"unknown device class %q: falling back to %g dB reference, stimulus scaling may be wrong",
			deviceClass, DefaultReferenceDB)
	}
	return DefaultReferenceDB
}

// ComputeGain returns the linear gain that makes a signal of sourceRMS
// play at targetDB on a device whose full-scale output is referenceDB.
// It satisfies 20*log10(gain*sourceRMS) == targetDB - referenceDB.
func ComputeGain(targetDB, referenceDB, sourceRMS float64) float64 {
	exponent := -(referenceDB - targetDB) / 20.0
	return math.Pow(10, exponent) / sourceRMS
}
