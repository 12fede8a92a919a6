package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Model API errors
	ErrCodeModelNotFound       ErrorCode = "MODEL_NOT_FOUND"
	ErrCodeModelAPIError       ErrorCode = "MODEL_API_ERROR"
	ErrCodeModelTimeout        ErrorCode = "MODEL_TIMEOUT"
	ErrCodeModelRateLimit      ErrorCode = "MODEL_RATE_LIMIT"
	ErrCodeModelQuotaExhausted ErrorCode = "MODEL_QUOTA_EXHAUSTED"
	ErrCodeModelOverloaded     ErrorCode = "MODEL_OVERLOADED"

	// Auth errors
	ErrCodeAuthMissing ErrorCode = "AUTH_MISSING"
	ErrCodeAuthSwitch  ErrorCode = "AUTH_SWITCH"

	// Storage errors
	ErrCodeStorageRead  ErrorCode = "STORAGE_READ"
	ErrCodeStorageWrite ErrorCode = "STORAGE_WRITE"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ContextResetAt is the context key carrying the quota reset time for
// MODEL_QUOTA_EXHAUSTED errors.
const ContextResetAt = "reset_at"

// Error represents a structured Quill error
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Context    map[string]any
	Retryable  bool
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap wraps an existing error with Quill error context
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
	}
}

// WithContext adds context key-value pairs to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks the error as retryable
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithResetAt records the time at which an exhausted quota resets.
func (e *Error) WithResetAt(resetAt time.Time) *Error {
	return e.WithContext(ContextResetAt, resetAt)
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" {")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", k, v))
			first = false
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Underlying))
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error. Returns an empty code for
// nil errors and ErrCodeInternal for foreign error types.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	quillErr, ok := err.(*Error)
	if !ok {
		return ErrCodeInternal
	}
	return quillErr.Code
}

// GetResetAt extracts the quota reset time from an error, if present.
func GetResetAt(err error) (time.Time, bool) {
	quillErr, ok := err.(*Error)
	if !ok || quillErr == nil {
		return time.Time{}, false
	}
	resetAt, ok := quillErr.Context[ContextResetAt].(time.Time)
	if !ok || resetAt.IsZero() {
		return time.Time{}, false
	}
	return resetAt, true
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	quillErr, ok := err.(*Error)
	if !ok || quillErr == nil {
		return false
	}
	return quillErr.Retryable
}
