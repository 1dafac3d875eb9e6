// Package memory provides an in-memory KV implementation for tests and
// local development.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/nftwatch/mewatch/internal/store"
)

// KV is an in-memory implementation of store.KV.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailSet and FailDelete, when non-empty, make Set or Delete return
	// FailErr for keys with that prefix. Used by tests to simulate
	// store write failures.
	FailSet    string
	FailDelete string
	FailErr    error
}

// New creates an empty in-memory store.
func New() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns the value at key, or store.ErrNotFound.
func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set writes value at key.
func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSet != "" && strings.HasPrefix(key, s.FailSet) {
		return s.FailErr
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// Delete removes key if present.
func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete != "" && strings.HasPrefix(key, s.FailDelete) {
		return s.FailErr
	}

	delete(s.data, key)
	return nil
}

// Scan returns all entries whose key starts with prefix.
func (s *KV) Scan(_ context.Context, prefix string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte)
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			c := make([]byte, len(v))
			copy(c, v)
			out[k] = c
		}
	}
	return out, nil
}

// Len returns the number of stored keys.
func (s *KV) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ store.KV = (*KV)(nil)
