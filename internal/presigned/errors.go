package presigned

import "github.com/abduss/modelvault/internal/apperror"

var (
	// ErrInvalidMethod signals a method other than GET or PUT.
	ErrInvalidMethod = apperror.Validation("method must be GET or PUT")
	// ErrInvalidTTL signals a lifetime outside one second to seven days.
	ErrInvalidTTL = apperror.Validation("ttl_seconds must be between 1 and 604800")
	// ErrSizeRequired signals a PUT request without a positive size_bytes.
	ErrSizeRequired = apperror.Validation("size_bytes must be positive for PUT")
	// ErrNotOwner signals a request for another tenant's bucket.
	ErrNotOwner = apperror.Forbidden("no access to bucket")
)
