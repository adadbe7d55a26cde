package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned to a pending apply request that a newer
	// request replaced before it started. It is control flow, not a failure.
	ErrSuperseded = errors.New("apply request superseded by a newer request")

	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("controller closed")
)

// ApplyErrorCode categorizes apply errors.
type ApplyErrorCode string

const (
	// ErrCodeNativeWrite indicates a native write returned an error or panicked.
	ErrCodeNativeWrite ApplyErrorCode = "NATIVE_WRITE_FAILED"

	// ErrCodeUnknownColumn indicates a column id the grid does not have.
	ErrCodeUnknownColumn ApplyErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeNotBound indicates an operation that needs a grid handle ran
	// without one.
	ErrCodeNotBound ApplyErrorCode = "NOT_BOUND"

	// ErrCodeInvalidOption indicates an option value of the wrong shape.
	ErrCodeInvalidOption ApplyErrorCode = "INVALID_OPTION"
)

// Pipeline steps, in execution order.
const (
	StepToolbar       = "toolbar"
	StepDefaultColumn = "defaultColDef"
	StepOptions       = "gridOptions"
	StepGridState     = "gridState"
	StepColumnDefs    = "columnDefs"
	StepRefresh       = "refresh"
	StepColumnEdit    = "columnEdit"
	StepReset         = "reset"
)

// Steps outside the pipeline that still read the grid.
const (
	StepBind    = "bind"
	StepCollect = "collect"
)

// ApplyError is one failure recorded while applying settings.
type ApplyError struct {
	// Code identifies the error category.
	Code ApplyErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the pipeline execution, when there is one.
	RunID string

	// Step is the pipeline step that failed.
	Step string

	// Key is the option key, sub-state or column id involved.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (step=%s, key=%s)", e.Code, msg, e.Step, e.Key)
	}
	return fmt.Sprintf("%s: %s (step=%s)", e.Code, msg, e.Step)
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}

// IsNativeWriteError returns true if err is a failed native write.
// Uses errors.As to handle wrapped errors.
func IsNativeWriteError(err error) bool {
	return hasCode(err, ErrCodeNativeWrite)
}

// IsNotBound returns true if err reports a missing grid handle.
func IsNotBound(err error) bool {
	return hasCode(err, ErrCodeNotBound)
}

// IsUnknownColumn returns true if err reports an unknown column id.
func IsUnknownColumn(err error) bool {
	return hasCode(err, ErrCodeUnknownColumn)
}

func hasCode(err error, code ApplyErrorCode) bool {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func nativeWriteError(runID, step, key string, err error) *ApplyError {
	return &ApplyError{
		Code:    ErrCodeNativeWrite,
		Message: "native write failed",
		RunID:   runID,
		Step:    step,
		Key:     key,
		Err:     err,
	}
}

// recovered converts a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
