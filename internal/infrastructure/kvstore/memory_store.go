// Package kvstore implementa el puerto repository.KeyValueStore sobre distintos
// backends (memoria, SQLite, Redis, S3). Todos guardan el valor como texto opaco.
package kvstore

import (
	"context"
	"sync"

	"github.com/jhoicas/customer-registry/internal/domain/repository"
)

var _ repository.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore slot en memoria del proceso. Útil en tests y con STORE_DRIVER=memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore construye un store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// NewMemoryStoreWith construye un store con valores iniciales.
func NewMemoryStoreWith(values map[string]string) *MemoryStore {
	s := NewMemoryStore()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get obtiene el valor de key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set sobrescribe el valor de key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Close no hace nada; existe para cumplir io.Closer como el resto de backends.
func (s *MemoryStore) Close() error { return nil }
