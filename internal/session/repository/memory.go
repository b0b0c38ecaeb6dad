package repository

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process Repository. Used in tests and when SESSION_BACKEND=memory.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]string)}
}

// Get returns the value for key and whether it is present.
func (r *MemoryRepository) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[key]
	return v, ok, nil
}

// GetAll returns a copy of every stored key and value.
func (r *MemoryRepository) GetAll(ctx context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out, nil
}

// PutAll stores all values under a single lock.
func (r *MemoryRepository) PutAll(ctx context.Context, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range values {
		r.m[k] = v
	}
	return nil
}

// Delete removes the given keys.
func (r *MemoryRepository) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.m, k)
	}
	return nil
}
