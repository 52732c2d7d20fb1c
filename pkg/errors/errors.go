package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeTransientFetch covers network failures, timeouts and throttling
	// responses from the scraping backend. Retried with backoff up to a
	// bounded attempt count.
	ErrorTypeTransientFetch ErrorType = "transient_fetch"
	// ErrorTypePermanentFetch covers deleted/blocked accounts and other
	// responses that will not change on retry. The candidate is dropped.
	ErrorTypePermanentFetch ErrorType = "permanent_fetch"
	// ErrorTypeBudgetExhausted is a run-level signal, not a per-candidate
	// failure. It triggers the orchestrator's early exit.
	ErrorTypeBudgetExhausted ErrorType = "budget_exhausted"
	// ErrorTypeCacheCorruption marks an unreadable cache entry. Treated as a
	// cache miss, never surfaced to callers.
	ErrorTypeCacheCorruption ErrorType = "cache_corruption"
	// ErrorTypeClassificationUnavailable means the AI backend is down or
	// misbehaving. The classifier degrades to its rule-based tier.
	ErrorTypeClassificationUnavailable ErrorType = "classification_unavailable"
	// ErrorTypeConfig is the only fatal kind: it aborts the run before any
	// external call is made.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeUnknown is everything else.
	ErrorTypeUnknown ErrorType = "unknown"
)

// ErrBudgetExhausted is the sentinel returned by the budgeter once the
// per-run call budget is spent.
var ErrBudgetExhausted = &Error{
	Type:    ErrorTypeBudgetExhausted,
	Message: "per-run call budget exhausted",
}

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// TypeOf extracts the ErrorType from err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsBudgetExhausted reports whether err is the budget-exhausted signal.
func IsBudgetExhausted(err error) bool {
	return TypeOf(err) == ErrorTypeBudgetExhausted
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeTransientFetch
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}

// FromStatusCode maps an HTTP status code from the scraping backend to the
// pipeline error taxonomy.
func FromStatusCode(statusCode int, message string) *Error {
	t := ErrorTypePermanentFetch
	if IsRetryableStatusCode(statusCode) {
		t = ErrorTypeTransientFetch
	}
	return &Error{Type: t, Message: message, Code: statusCode}
}
