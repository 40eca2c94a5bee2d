package pairing

import "github.com/abduss/modelvault/internal/apperror"

var (
	ErrSessionNotFound  = apperror.NotFound("pairing session not found")
	ErrSessionExpired   = apperror.Validation("pairing session has expired")
	ErrAlreadyCompleted = apperror.Validation("pairing session already completed")
	ErrDeviceNotFound   = apperror.NotFound("device with the provided serial number not found")
	ErrNotPaired        = apperror.NotFound("device pairing not found")
	ErrForbidden        = apperror.Forbidden("pairing session belongs to another user")
	ErrMissingFields    = apperror.Validation("pairingId and deviceSerialNumber are required")
)
