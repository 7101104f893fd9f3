package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing category, amount not positive, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user is not allowed to touch the
// aggregate, typically because they are not a participant of the trip.
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidToken is returned when a password-reset token is unknown, used, or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrConflict is returned when an insert would violate a unique constraint
// (email, username, review per trip and user).
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized is returned when credentials or a session token do not check out.
var ErrUnauthorized = errors.New("unauthorized")
