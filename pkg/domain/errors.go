package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrValidation is returned when input validation fails before a request is sent
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when the caller has no usable credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the backend refuses the action for this caller
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when the backend reports a state conflict
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists is returned when a local record already exists
	ErrAlreadyExists = errors.New("already exists")
	// ErrCancelled is returned when the operator declines a confirmation
	ErrCancelled = errors.New("cancelled by operator")
)
