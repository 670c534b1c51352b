// Package domainerrors defines the coded error type shared by every layer.
//
// Services return *DomainError values; the HTTP layer maps codes to status
// codes and the callers branch on codes with HasCode. Wrapping preserves the
// underlying cause for logging while keeping the public message stable.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and caller branching.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeRateLimited        Code = "rate_limited"

	// Donation engine codes. Each maps to one failure mode of the
	// request/response lifecycle.
	CodeInvalidTransition      Code = "invalid_transition"
	CodeDuplicateResponse      Code = "duplicate_response"
	CodeIneligibleDonor        Code = "ineligible_donor"
	CodeEligibilityExpired     Code = "eligibility_expired"
	CodeAlreadyCompleted       Code = "already_completed"
	CodeConcurrentModification Code = "concurrent_modification"
)

// DomainError carries a machine-readable code, a human-readable message, an
// optional wrapped cause, and optional reason details (used by eligibility
// failures, which must surface every blocking condition at once).
type DomainError struct {
	Code    Code
	Message string
	Reasons []string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, cause: err}
}

// WithReasons returns a copy of the error carrying the given reason list.
func (e *DomainError) WithReasons(reasons []string) *DomainError {
	clone := *e
	clone.Reasons = append([]string(nil), reasons...)
	return &clone
}

// HasCode reports whether err is (or wraps) a domain error with the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for plain errors.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonsOf extracts the attached reasons, if any.
func ReasonsOf(err error) []string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reasons
	}
	return nil
}

// Is allows errors.Is matching on code equality between two domain errors.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// ToHTTPStatus maps an error's code to an HTTP status. Unknown and internal
// codes map to 500.
func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeIneligibleDonor, CodeEligibilityExpired:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateResponse, CodeConcurrentModification:
		return http.StatusConflict
	case CodeInvalidTransition, CodeAlreadyCompleted, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
