// Package domainerrors provides coded domain errors. Every rejection the
// engines produce is a normal, expected outcome of invalid input or an unmet
// precondition; the code classifies it so transports can translate without
// inspecting messages.
//
// Stores and infrastructure return pkg/platform/sentinel errors; services
// translate those into coded errors at the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. String values are stable and appear in API
// responses and logs.
type Code string

const (
	// CodeBadRequest covers malformed requests rejected before validation.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers well-formed input failing domain validation
	// (invalid threshold, empty signer list, bad policy config).
	CodeValidation Code = "validation_failed"
	// CodeInvalidInput covers malformed identifiers and addresses at trust
	// boundaries.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthorized covers missing or unverifiable caller identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers authenticated callers lacking authority (not a
	// signer, not the proposal creator, not an emergency signer).
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers references to entities that do not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict covers state preconditions that do not hold (frozen
	// treasury, expired time-lock not reached, already signed, insufficient
	// balance, cooldown in effect).
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks an entity invariant breach detected by a
	// constructor or mutator.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal covers infrastructure failures.
	CodeInternal Code = "internal_error"
	// CodeTimeout covers deadline-exceeded infrastructure failures.
	CodeTimeout Code = "timeout"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports code equality so errors.Is(err, dErrors.New(code, "")) works for
// sentinel-style comparisons.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transports fail closed.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err, empty for uncoded
// errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// Is re-exports errors.Is so call sites importing this package as dErrors do
// not also need stdlib errors.
func Is(err, target error) bool { return errors.Is(err, target) }

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
