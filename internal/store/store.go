package store

import (
	"context"
	"errors"
)

// KV is the minimal key-value contract the reconciliation core needs.
// Values are opaque bytes; components encode JSON into them.
type KV interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value at key, creating or overwriting.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Scan returns all entries whose key starts with prefix.
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)
}

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("key not found")
