package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/fee-portal/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type memoryNamespace struct {
	values  map[string][]byte
	touched time.Time
}

// InMemoryStorage is a thread-safe in-memory implementation of Storage
type InMemoryStorage struct {
	mu         sync.RWMutex
	namespaces map[string]*memoryNamespace
}

// NewInMemoryStorage creates a new in-memory storage
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		namespaces: make(map[string]*memoryNamespace),
	}
}

var _ Storage = (*InMemoryStorage)(nil)

func (s *InMemoryStorage) Get(_ context.Context, namespace, key string) ([]byte, error) {
	if namespace == "" {
		return nil, errors.ErrInvalidNamespace
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil, errors.ErrNotFound
	}
	value, ok := ns.values[key]
	if !ok {
		return nil, errors.ErrNotFound
	}

	// Return a copy so callers cannot mutate the stored bytes
	return append([]byte(nil), value...), nil
}

func (s *InMemoryStorage) Set(_ context.Context, namespace, key string, value []byte) error {
	if namespace == "" {
		return errors.ErrInvalidNamespace
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = &memoryNamespace{values: make(map[string][]byte)}
		s.namespaces[namespace] = ns
	}
	ns.values[key] = append([]byte(nil), value...)
	ns.touched = NowTimeFunc()
	return nil
}

func (s *InMemoryStorage) Delete(_ context.Context, namespace, key string) error {
	if namespace == "" {
		return errors.ErrInvalidNamespace
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil // Already doesn't exist, no error
	}
	delete(ns.values, key)
	ns.touched = NowTimeFunc()

	// Clean up empty namespaces
	if len(ns.values) == 0 {
		delete(s.namespaces, namespace)
	}
	return nil
}

func (s *InMemoryStorage) Clear(_ context.Context, namespace string) error {
	if namespace == "" {
		return errors.ErrInvalidNamespace
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.namespaces, namespace)
	return nil
}

// Len returns the number of live namespaces
func (s *InMemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces)
}

// EvictIdle drops namespaces not written for longer than idle and returns how many went.
func (s *InMemoryStorage) EvictIdle(idle time.Duration) int {
	cutoff := NowTimeFunc().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted int
	for name, ns := range s.namespaces {
		if ns.touched.Before(cutoff) {
			delete(s.namespaces, name)
			evicted++
		}
	}
	return evicted
}
