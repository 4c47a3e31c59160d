package scholar

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyInput is returned when a required input is empty.
var ErrEmptyInput = errors.New("empty input")

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient marks failures that may succeed on retry
	// (rate limits, overloaded servers, dropped connections).
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent marks failures retrying cannot fix
	// (bad credentials, unknown model).
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput marks requests that must be corrected by the caller.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that carries handling metadata.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is the default CategorizedError implementation.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After, 0 if unknown
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// Retryable reports whether the error is transient.
func (e *Error) Retryable() bool { return e.Cat == ErrorTransient }

// StatusCode returns the HTTP status code, or 0.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the server-suggested retry delay, or 0.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a retryable error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a retryable error with a server-suggested delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
}

// NewPermanentError creates an error that must not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error describing invalid caller input.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// CategorizeStatusCode maps an HTTP status code to an error category.
func CategorizeStatusCode(code int) ErrorCategory {
	switch {
	case code == 429:
		return ErrorTransient
	case code >= 500 && code < 600:
		return ErrorTransient
	case code == 400 || code == 404 || code == 422:
		return ErrorUserInput
	default:
		return ErrorPermanent
	}
}

// NewStatusError builds a categorized error from an HTTP status code.
func NewStatusError(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{
		Msg:        msg,
		Cat:        CategorizeStatusCode(statusCode),
		Code:       statusCode,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// IsTransient reports whether err, or any error it wraps, is transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent reports whether err, or any error it wraps, is permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput reports whether err, or any error it wraps, is a user input error.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// GenerationError reports a text-generation response that does not match
// the requested schema. It is never retried.
type GenerationError struct {
	Schema  string // schema name
	Content string // raw model output
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: response does not match schema %q: %v", e.Schema, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// RetrievalError reports a failed web search or knowledge-base lookup.
type RetrievalError struct {
	Source string // "web" or "knowledge_base"
	Query  string
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("retrieval: %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("retrieval: %s query %q: %v", e.Source, e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
