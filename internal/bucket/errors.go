package bucket

import "github.com/abduss/modelvault/internal/apperror"

var (
	// ErrInvalidName indicates a derived bucket name violates the naming rules.
	ErrInvalidName = apperror.Validation("invalid bucket name")
	// ErrUserNotFound signals that the owning user could not be located.
	ErrUserNotFound = apperror.NotFound("user not found")
)
