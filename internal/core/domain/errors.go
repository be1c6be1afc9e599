package domain

import "errors"

// Credential errors.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// Token and authorization header errors. All of them mean the caller is not
// authenticated.
var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidClaims       = errors.New("invalid token payload")
	ErrMissingAuthHeader   = errors.New("authorization header missing")
	ErrMalformedAuthHeader = errors.New("invalid authorization header format")
	ErrInvalidAuthScheme   = errors.New("invalid authentication scheme")
)

// ErrAuthUnavailable is returned when the Authentication Service cannot be
// reached at all. It must never be reported as an authentication failure.
var ErrAuthUnavailable = errors.New("auth service unavailable")

// Authorization errors.
var (
	ErrAdminRequired = errors.New("admin access required")
	ErrNotTaskOwner  = errors.New("you can only update your own tasks")
)

// Task errors.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidStatus = errors.New("status must be one of: pending in_progress completed")
	ErrTitleRequired = errors.New("title is required")
)

// ErrRequestInFlight is returned when another request holding the same
// Idempotency-Key has not finished yet.
var ErrRequestInFlight = errors.New("a request with this idempotency key is in progress")

// IsUnauthorized reports whether err means the caller failed authentication.
func IsUnauthorized(err error) bool {
	for _, target := range []error{
		ErrInvalidCredentials,
		ErrInvalidToken,
		ErrInvalidClaims,
		ErrUserNotFound,
		ErrMissingAuthHeader,
		ErrMalformedAuthHeader,
		ErrInvalidAuthScheme,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
