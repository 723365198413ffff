package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// IsNotFound checks if an error is a not-found type error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}

// IsValidation checks if an error is a request-validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
