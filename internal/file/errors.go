package file

import "github.com/abduss/modelvault/internal/apperror"

var (
	// ErrFileRequired signals a request without a file field.
	ErrFileRequired = apperror.Validation("file field is required")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = apperror.Validation("file exceeds the 100 MB limit")
	// ErrTypeNotAllowed signals a file that is neither a 3D asset nor an image.
	ErrTypeNotAllowed = apperror.Validation("file type not allowed")
	// ErrObjectParams signals a missing bucket or path query parameter.
	ErrObjectParams = apperror.Validation("bucket and path are required")
	// ErrFileNotFound signals that the file could not be located.
	ErrFileNotFound = apperror.NotFound("file not found")
)
