package errors

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// WarningType classifies a non-fatal, reported condition. Warnings never
// abort a running session: stopping mid-session destroys collected data.
type WarningType string

const (
	// WarningTypeDrift means an auxiliary clock drifted more than the
	// tolerance from its frozen baseline offset.
	WarningTypeDrift WarningType = "DRIFT"
	// WarningTypeDeviceMismatch means stimulus and device sample rates
	// differ; resampling proceeds or was explicitly suppressed.
	WarningTypeDeviceMismatch WarningType = "DEVICE_MISMATCH"
	// WarningTypeUnderLevel means measured RMS fell more than 6 dB below
	// the declared reference. Data-quality issue, not a safety issue.
	WarningTypeUnderLevel WarningType = "UNDER_LEVEL"
	// WarningTypeCalibration means an unrecognized device class fell back
	// to the conservative default reference level.
	WarningTypeCalibration WarningType = "CALIBRATION"
	// WarningTypeTiming covers late wait_until targets and similar
	// scheduling slips.
	WarningTypeTiming WarningType = "TIMING"
)

// Warning is one reported non-fatal condition.
type Warning struct {
	Type    WarningType
	Message string
	Time    time.Time
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Type, w.Message)
}

// Report collects warnings across an operation so callers can decide
// whether timing-sensitive work should be abandoned. The zero value is
// unusable; use NewReport.
type Report struct {
	mu       sync.Mutex
	warnings []Warning
	sinks    []func(Warning)
}

// NewReport creates an empty warning report.
func NewReport() *Report {
	return &Report{}
}

// Subscribe registers a sink invoked for every warning as it is added.
func (r *Report) Subscribe(sink func(Warning)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, sink)
}

// Add records a warning and notifies subscribers.
func (r *Report) Add(wtype WarningType, format string, args ...interface{}) {
	w := Warning{
		Type:    wtype,
		Message: fmt.Sprintf(format, args...),
		Time:    time.Now(),
	}
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	sinks := make([]func(Warning), len(r.sinks))
	copy(sinks, r.sinks)
	r.mu.Unlock()

	for _, sink := range sinks {
		sink(w)
	}
}

// Warnings returns a copy of all recorded warnings.
func (r *Report) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Count returns the number of recorded warnings.
func (r *Report) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}

// TeardownReport collects per-action cleanup failures. Cleanup actions
// run independently: one failure never prevents the rest from running.
type TeardownReport struct {
	failures []error
}

// Record stores a failed cleanup action.
func (t *TeardownReport) Record(action string, err error) {
	t.failures = append(t.failures, fmt.Errorf("%s: %w", action, err))
}

// Failures returns the recorded failures in order.
func (t *TeardownReport) Failures() []error {
	return t.failures
}

// Err returns nil when every action succeeded, otherwise a single
// TeardownFailure summarizing all of them.
func (t *TeardownReport) Err() error {
	if len(t.failures) == 0 {
		return nil
	}
	msgs := make([]string, len(t.failures))
	for i, f := range t.failures {
		msgs[i] = f.Error()
	}
	return &ExperimentError{
		Type:    ErrorTypeTeardown,
		Message: fmt.Sprintf("%d cleanup action(s) failed: %s", len(t.failures), strings.Join(msgs, "; ")),
		Err:     t.failures[0],
	}
}
