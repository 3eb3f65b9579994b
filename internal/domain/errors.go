package domain

import "errors"

var (
	// ErrScenarioNotFound is returned when a scenario does not exist or is not owned by the caller.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrUserNotFound is returned when the owning user cannot be loaded.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidGranularity is returned for an unknown projection granularity.
	ErrInvalidGranularity = errors.New("invalid granularity")
)
