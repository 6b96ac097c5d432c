package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Dayreel error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrInvalidDate      ErrorCode = "INVALID_DATE"      // 400
	ErrInvalidRange     ErrorCode = "INVALID_RANGE"     // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// DayreelError represents a structured error with code, status, and details.
type DayreelError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DayreelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *DayreelError {
	return &DayreelError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidDate creates a 400 error for a date that cannot be parsed.
func NewInvalidDate(field, value string) *DayreelError {
	return &DayreelError{
		Code:    ErrInvalidDate,
		Status:  400,
		Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD form, got %q", field, value),
		Details: map[string]any{"field": field, "value": value},
	}
}

// NewInvalidRange creates a 400 error for a date range that is reversed or too long.
func NewInvalidRange(msg string) *DayreelError {
	return &DayreelError{
		Code:    ErrInvalidRange,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing pin, preference or asset.
func NewNotFound(kind, identifier string) *DayreelError {
	return &DayreelError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *DayreelError {
	return &DayreelError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates an error for an operation abandoned by its caller.
// completed is the number of items finished before cancellation.
func NewCancelled(operation string, completed int) *DayreelError {
	return &DayreelError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation, "completed": completed},
	}
}

// NewStoreUnavailable creates a 503 error when the database is not initialized.
func NewStoreUnavailable() *DayreelError {
	return &DayreelError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: "store is not available",
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *DayreelError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &DayreelError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a DayreelError with the given code.
func Is(err error, code ErrorCode) bool {
	var dErr *DayreelError
	if stderrors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
