package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable error taxonomy surfaced to callers.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeInvalidFormat      ErrorCode = "INVALID_FORMAT"
	CodeMissingField       ErrorCode = "MISSING_FIELD"
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Error is the structured failure every layer above the repositories speaks.
// Details lists offending fields and accepted formats where that helps the
// caller repair the request.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches a detail entry and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error without exposing it to callers.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// AsError unwraps err into a *Error when one is in the chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validationf reports a schema/shape violation.
func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, format, args...)
}

// InvalidFormat reports a malformed identifier or similar.
func InvalidFormat(field, value string) *Error {
	e := newError(CodeInvalidFormat, "invalid %s format: %q", field, value)
	return e.WithDetail("field", field).WithDetail("accepted", "canonical UUID (8-4-4-4-12) or 32-hex compact form")
}

// MissingField reports an absent required field for the chosen action.
func MissingField(field string) *Error {
	return newError(CodeMissingField, "missing required field: %s", field).WithDetail("field", field)
}

// Unauthenticated reports a missing or invalid credential.
func Unauthenticated(reason string) *Error {
	return newError(CodeUnauthenticated, "authentication required: %s", reason).WithDetail("reason", reason)
}

// Forbidden reports an ownership or role failure.
func Forbidden(format string, args ...any) *Error {
	return newError(CodeForbidden, format, args...)
}

// NotFound reports a missing (or not-owned) entity.
func NotFound(entity string, id any) *Error {
	return newError(CodeNotFound, "%s not found: %v", entity, id).WithDetail("entity", entity).WithDetail("id", fmt.Sprint(id))
}

// Conflict reports unique-name violations, dependency cycles, and deletes
// of non-empty parents.
func Conflict(format string, args ...any) *Error {
	return newError(CodeConflict, format, args...)
}

// PreconditionFailed reports an operation attempted in an unsatisfiable state.
func PreconditionFailed(format string, args ...any) *Error {
	return newError(CodePreconditionFailed, format, args...)
}

// Internalf reports an unexpected failure. The cause is logged, never
// surfaced to callers.
func Internalf(format string, args ...any) *Error {
	return newError(CodeInternal, format, args...)
}

// Timeout reports a request-deadline expiry.
func Timeout() *Error {
	return newError(CodeTimeout, "request deadline exceeded")
}

// RateLimited reports quota exhaustion.
func RateLimited(retryAfterSeconds int) *Error {
	return newError(CodeRateLimited, "rate limit exceeded").WithDetail("retry_after_seconds", retryAfterSeconds)
}
