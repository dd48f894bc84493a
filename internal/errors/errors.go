package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a fatal experiment error.
type ErrorType string

const (
	// ErrorTypeConfiguration covers bad device or backend selection.
	// Raised before any hardware is touched.
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	// ErrorTypeOutOfRange means sample data exceeded +/- 1.0.
	ErrorTypeOutOfRange ErrorType = "OUT_OF_RANGE"
	// ErrorTypeShape means sample data had a bad dimensionality or more
	// than two channels.
	ErrorTypeShape ErrorType = "SHAPE_ERROR"
	// ErrorTypeLevelExceeded means measured RMS exceeded the declared
	// reference by more than 6 dB. This is a hearing-safety stop and is
	// never downgraded to a warning.
	ErrorTypeLevelExceeded ErrorType = "LEVEL_EXCEEDED"
	// ErrorTypeCallback means a flip callback failed. The current flip
	// sequence terminates after the remaining callbacks were attempted.
	ErrorTypeCallback ErrorType = "CALLBACK_FAILURE"
	// ErrorTypeTeardown collects per-action cleanup failures.
	ErrorTypeTeardown ErrorType = "TEARDOWN_FAILURE"
	// ErrorTypeUnavailable means a required channel or device was not
	// usable when an operation started.
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	// ErrorTypeInternal is the fallback classification.
	ErrorTypeInternal ErrorType = "INTERNAL_ERROR"
)

// ExperimentError is a fatal error with classification and context.
type ExperimentError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *ExperimentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ExperimentError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *ExperimentError) WithDetails(details map[string]interface{}) *ExperimentError {
	e.Details = details
	return e
}

// New creates a new ExperimentError.
func New(errType ErrorType, message string) *ExperimentError {
	return &ExperimentError{Type: errType, Message: message}
}

// Wrap wraps an existing error with classification.
func Wrap(err error, errType ErrorType, message string) *ExperimentError {
	return &ExperimentError{Type: errType, Message: message, Err: err}
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string) *ExperimentError {
	return New(ErrorTypeConfiguration, message)
}

// NewOutOfRangeError creates an out-of-range sample error.
func NewOutOfRangeError(message string) *ExperimentError {
	return New(ErrorTypeOutOfRange, message)
}

// NewShapeError creates a sample shape error.
func NewShapeError(message string) *ExperimentError {
	return New(ErrorTypeShape, message)
}

// NewLevelExceededError creates a hearing-safety level error.
func NewLevelExceededError(message string) *ExperimentError {
	return New(ErrorTypeLevelExceeded, message)
}

// NewCallbackFailure wraps a callback error.
func NewCallbackFailure(err error, message string) *ExperimentError {
	return Wrap(err, ErrorTypeCallback, message)
}

// NewUnavailableError creates an unavailable-resource error.
func NewUnavailableError(message string) *ExperimentError {
	return New(ErrorTypeUnavailable, message)
}

// IsType reports whether err is an ExperimentError of the given type.
func IsType(err error, errType ErrorType) bool {
	var expErr *ExperimentError
	if errors.As(err, &expErr) {
		return expErr.Type == errType
	}
	return false
}

// GetType extracts the error type, defaulting to internal.
func GetType(err error) ErrorType {
	var expErr *ExperimentError
	if errors.As(err, &expErr) {
		return expErr.Type
	}
	return ErrorTypeInternal
}
