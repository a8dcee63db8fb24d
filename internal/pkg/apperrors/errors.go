package apperrors

import "errors"

// Standard application errors
var (
	// ErrInvalidInput is returned when supplied data (config, keys, files) is invalid.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrExternalServiceFailure is returned when an interaction with an external service fails.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timed out")
)
