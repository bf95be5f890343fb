package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeRateLimitSkip  ErrorType = "rate_limit_skip"
	ErrorTypeMaxRetries     ErrorType = "max_retries"
	ErrorTypeHTTP           ErrorType = "http"
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeParsing        ErrorType = "parsing"
	ErrorTypeMalformedInput ErrorType = "malformed_input"
	ErrorTypeUnsupported    ErrorType = "unsupported"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Type == ErrorTypeHTTP {
		return fmt.Sprintf("http_%d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error without an HTTP status code.
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewHTTP creates an http_<status> error. These are never retried: a 400 or
// 403 indicates a malformed query or an auth failure that retrying cannot fix.
func NewHTTP(status int, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeHTTP, Code: status, Message: fmt.Sprintf(format, args...)}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// IsFatal reports whether an error must abort the invocation before any I/O.
// Everything else is local to one stream's page loop.
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeMalformedInput, ErrorTypeAuth:
		return true
	default:
		return false
	}
}
