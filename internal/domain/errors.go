package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before any state was touched.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated is returned when an operation needs a logged in user.
	ErrUnauthenticated = errors.New("login required")
)
