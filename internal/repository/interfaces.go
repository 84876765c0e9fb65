package repository

import (
	"context"
)

// Backend is a durable string key/value store holding credential entries.
//
// Implementations return ErrNotFound from Get for missing keys and must be
// safe for concurrent use.
type Backend interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend resources.
	Close() error
}
