// Package memory provides an in-process domain.Store for tests and
// throwaway runs. Nothing survives the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/msomdec/contact-book/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewStore() *Store {
	return &Store{entries: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = slices.Clone(value)
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *Store) Apply(_ context.Context, mutations ...domain.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range mutations {
		if m.Value == nil {
			delete(s.entries, m.Key)
			continue
		}
		s.entries[m.Key] = slices.Clone(m.Value)
	}
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
