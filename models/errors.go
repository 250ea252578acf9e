package models

import "errors"

// Domain errors surfaced by the settlement core. The API layer maps these
// to HTTP statuses; services wrap them with context and callers test with
// errors.Is.
var (
	// ErrInsufficientFunds is returned when a debit would drive the
	// balance negative. The request is rejected with no partial effect.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrUserNotFound is returned when no user exists for the caller
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when an insert collides with an existing
	// row for the same Privy identity; the caller reads that row instead
	ErrUserExists = errors.New("user already exists")

	// ErrSessionNotFound is returned when a session does not exist or
	// does not belong to the caller
	ErrSessionNotFound = errors.New("game session not found")

	// ErrAlreadySettled is returned when end is invoked on a session
	// that is no longer active
	ErrAlreadySettled = errors.New("game session already settled")

	// ErrUsernameTaken is returned when a profile update requests a
	// username another user already holds
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidToken is returned when bearer token verification fails
	ErrInvalidToken = errors.New("invalid or expired access token")

	// ErrValidation is wrapped by services rejecting out-of-range or
	// malformed input before any mutation takes place
	ErrValidation = errors.New("validation failed")
)
