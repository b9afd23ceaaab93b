package models

import "errors"

// Sentinel errors for the auth core. Handlers map these onto stable HTTP
// status classes; anything not in this list is reported as a generic 500.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication and token errors (all surface as 401)
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrAccountInactive      = errors.New("account is inactive")

	// Throttling errors (all surface as 429)
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	ErrRateLimited     = errors.New("rate limit exceeded")

	// Client errors on mutation paths (400)
	ErrInvalidOrExpiredCode = errors.New("invalid or expired reset code")
	ErrDuplicateAccount     = errors.New("username or email already exists")
	ErrPasswordMismatch     = errors.New("password and confirmation do not match")
)
