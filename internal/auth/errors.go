package auth

import "github.com/abduss/modelvault/internal/apperror"

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = apperror.Conflict("email already registered")
	// ErrUsernameTaken indicates another account uses the username.
	ErrUsernameTaken = apperror.Conflict("username already taken")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = apperror.Unauthenticated("invalid credentials")
	// ErrInvalidRegistration rejects malformed registration input.
	ErrInvalidRegistration = apperror.Validation("email, username and a password of 8-72 characters are required")
	// ErrInvalidUsername rejects usernames outside 3-30 characters of [A-Za-z0-9_-].
	ErrInvalidUsername = apperror.Validation("username must be 3-30 characters of letters, digits, '_' or '-'")
	// ErrUsernameUnchanged rejects a rename to the current username.
	ErrUsernameUnchanged = apperror.Validation("new username must differ from the current one")
	// ErrPasswordMismatch rejects a new password that differs from its confirmation.
	ErrPasswordMismatch = apperror.Validation("passwords do not match")
	// ErrWeakPassword rejects a new password outside 8-72 characters.
	ErrWeakPassword = apperror.Validation("new password must be 8-72 characters")
	// ErrWrongPassword is returned when the current password does not verify.
	ErrWrongPassword = apperror.Unauthenticated("current password is incorrect")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = apperror.NotFound("user not found")
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = apperror.Unauthenticated("unauthorized")
)
