package blob

import (
	"context"
	"sync"

	"cartify/internal/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemory keeps blobs in process memory only.
func NewMemory() Repository {
	return &memoryRepo{blobs: make(map[string]string)}
}

func (r *memoryRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.blobs[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.blobs[key] = value
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.blobs, key)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Ping(context.Context) error {
	return nil
}
