package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Clipz error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrCancelled         ErrorCode = "CANCELLED"          // 499
	ErrInternal          ErrorCode = "INTERNAL"           // 500
	ErrDaemonUnavailable ErrorCode = "DAEMON_UNAVAILABLE" // 503
)

// ClipzError represents a structured error with code, status, and details.
type ClipzError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ClipzError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ClipzError {
	return &ClipzError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an entry cannot be found.
func NewNotFound(identifier string) *ClipzError {
	return &ClipzError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entry not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *ClipzError {
	return &ClipzError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates a 499 error for an operation aborted by its context.
func NewCancelled(operation string) *ClipzError {
	return &ClipzError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewDaemonUnavailable creates a 503 error when the clipz daemon cannot be reached.
func NewDaemonUnavailable(addr string, err error) *ClipzError {
	msg := fmt.Sprintf("clipz daemon not reachable at %s (start it with 'clipz run')", addr)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &ClipzError{
		Code:    ErrDaemonUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"addr": addr},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *ClipzError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &ClipzError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a ClipzError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *ClipzError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}
