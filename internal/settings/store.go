// Package settings is the durable key-value store the client keeps its
// session and preferences in. Values survive restarts; a missing key is a
// normal condition, not a failure.
package settings

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound reports that a key has no stored value.
var ErrNotFound = errors.New("settings: key not found")

// Store persists string values by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// MemoryStore is an in-memory Store. The zero value is not usable, call
// NewMemoryStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string

	// FailGet, FailSet and FailRemove, when set, force the matching
	// operation to fail. Used in tests to simulate storage outages.
	FailGet    error
	FailSet    error
	FailRemove error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if s.FailGet != nil {
		return "", s.FailGet
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if s.FailSet != nil {
		return s.FailSet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, keys ...string) error {
	if s.FailRemove != nil {
		return s.FailRemove
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}
