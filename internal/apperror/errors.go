// Package apperror defines the error kinds shared by every feature package
// and their mapping onto HTTP responses.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input: bad folder names, disallowed file types, oversized payloads.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated marks a request without a usable identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden marks an action on a resource the caller does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks an absent bucket, object, folder or record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")
)

// Error carries a client-safe message together with its kind.
type Error struct {
	kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, Message: msg}
}

// Validation builds an ErrValidation error.
func Validation(msg string) error { return newError(ErrValidation, msg) }

// Unauthenticated builds an ErrUnauthenticated error.
func Unauthenticated(msg string) error { return newError(ErrUnauthenticated, msg) }

// Forbidden builds an ErrForbidden error.
func Forbidden(msg string) error { return newError(ErrForbidden, msg) }

// NotFound builds an ErrNotFound error.
func NotFound(msg string) error { return newError(ErrNotFound, msg) }

// Conflict builds an ErrConflict error.
func Conflict(msg string) error { return newError(ErrConflict, msg) }

// Wrap attaches a cause to a kind while keeping msg as the client-facing text.
func Wrap(kind error, msg string, cause error) error {
	return &Error{kind: kind, Message: msg, cause: cause}
}

const bytesPerMB = 1024 * 1024

// QuotaExceededError is returned when accepting new bytes would push a
// tenant over its plan limit.
type QuotaExceededError struct {
	UsedBytes  int64
	LimitBytes int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage limit reached: %.2f MB used of %.0f MB", e.UsedMB(), e.LimitMB())
}

// Is makes quota failures match ErrForbidden.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrForbidden
}

// UsedMB reports current usage in megabytes.
func (e *QuotaExceededError) UsedMB() float64 {
	return float64(e.UsedBytes) / bytesPerMB
}

// LimitMB reports the limit in megabytes.
func (e *QuotaExceededError) LimitMB() float64 {
	return float64(e.LimitBytes) / bytesPerMB
}
