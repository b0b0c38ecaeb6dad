package repository

import "context"

// Repository persists the client session state as a flat set of fixed string keys
// (see domain.Key* constants). Implementations must apply PutAll atomically: either every
// value is stored or none is.
type Repository interface {
	// Get returns the value for key and whether it is present.
	Get(ctx context.Context, key string) (string, bool, error)
	// GetAll returns every stored key and value. Returns an empty map when nothing is stored.
	GetAll(ctx context.Context) (map[string]string, error)
	// PutAll stores all values in one atomic write, overwriting existing keys.
	PutAll(ctx context.Context, values map[string]string) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
