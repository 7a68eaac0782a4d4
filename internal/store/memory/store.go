// Package memory provides an in-process implementation of domain.Store used for tests
// and the default demo backend.
package memory

import (
	"context"
	"slices"
	"sync"

	"anonchat/internal/domain"
)

var _ domain.Store = (*Store)(nil)

type record struct {
	value   []byte
	version uint64
}

// Store keeps every key in a map guarded by a mutex. Each call is atomic on its own;
// nothing spans calls.
type Store struct {
	mu   sync.RWMutex
	data map[string]record
}

// New creates an empty store
func New() *Store {
	return &Store{data: make(map[string]record)}
}

func (s *Store) Get(ctx context.Context, key string) (domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key]
	if !ok {
		return domain.Entry{}, nil
	}
	return domain.Entry{Value: slices.Clone(rec.value), Version: rec.version}, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(key, value)
	return nil
}

func (s *Store) CompareAndSet(ctx context.Context, key string, value []byte, version uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[key].version != version {
		return domain.ErrVersionConflict
	}
	s.put(key, value)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) put(key string, value []byte) {
	s.data[key] = record{value: slices.Clone(value), version: s.data[key].version + 1}
}
