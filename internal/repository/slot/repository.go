// Package slot stores single JSON values under fixed string keys. A slot is
// overwritten wholesale on every write; there is no versioning.
package slot

import (
	"context"
	"sync"

	"porch-petals/internal/domain"
)

// Repository reads and writes named slots. Get returns domain.ErrNotFound for
// a key that was never written.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type memoryRepo struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{slots: make(map[string][]byte)}
}

func (r *memoryRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.slots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *memoryRepo) Put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = append([]byte(nil), value...)
	return nil
}
