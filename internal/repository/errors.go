package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a key is not present in the backend
	ErrNotFound = errors.New("record not found")

	// ErrUnknownBackend is returned when the configured backend kind is not supported
	ErrUnknownBackend = errors.New("unknown credential backend")
)
