package profile

import "errors"

// Sentinel errors for the profile store.
var (
	// ErrProfileNotFound is returned when no profile has the given id or name.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when a profile name is already taken.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInvalidProfile is returned when a profile fails validation.
	ErrInvalidProfile = errors.New("invalid profile")
)
