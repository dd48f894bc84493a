package audio

import (
	"fmt"

	"github.com/zsiec/pulse/internal/errors"
)

// ErrSampleOutOfRange reports sample data outside [-1, 1]. The offending
// value is never silently clipped.
type ErrSampleOutOfRange struct {
	Index int
	Value float64
}

func (e *ErrSampleOutOfRange) Error() string {
	return fmt.Sprintf("sample data exceeds +/- 1.0: value %g at index %d", e.Value, e.Index)
}

// ErrBadShape reports sample data with an unusable layout.
type ErrBadShape struct {
	Rows   int
	Cols   int
	Reason string
}

func (e *ErrBadShape) Error() string {
	return fmt.Sprintf("bad sample shape %dx%d: %s", e.Rows, e.Cols, e.Reason)
}

// ErrLevelExceeded reports measured RMS more than 6 dB above the
// declared reference. Over-level output can damage hearing, so this is
// always a hard failure.
type ErrLevelExceeded struct {
	MeasuredRMS  float64
	ReferenceRMS float64
}

func (e *ErrLevelExceeded) Error() string {
	return fmt.Sprintf("stimulus max RMS (%g) exceeds stated RMS (%g) by more than 6 dB",
		e.MeasuredRMS, e.ReferenceRMS)
}

func outOfRangeError(index int, value float64) error {
	return errors.Wrap(&ErrSampleOutOfRange{Index: index, Value: value},
		errors.ErrorTypeOutOfRange, "sample data exceeds +/- 1.0")
}

func shapeError(rows, cols int, reason string) error {
	return errors.Wrap(&ErrBadShape{Rows: rows, Cols: cols, Reason: reason},
		errors.ErrorTypeShape, reason)
}

func levelExceededError(measured, reference float64) error {
	return errors.Wrap(&ErrLevelExceeded{MeasuredRMS: measured, ReferenceRMS: reference},
		errors.ErrorTypeLevelExceeded, "stimulus level exceeds stated RMS by more than 6 dB")
}
