// Package seencache implements the alternate dedup shape: a bounded,
// TTL-based seen set keyed by (token, price), used when no durable
// per-token ledger is wanted.
//
// Because price is part of the key, a token re-listed at a previously
// seen price within the TTL is treated as already announced, even if it
// delisted and relisted in between. That is a documented imprecision of
// this shape; the ledger is the reference behavior.
package seencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/nftwatch/mewatch/internal/store"
)

// Set is one collection's seen set: dedup key -> last sighting
// (seconds since epoch).
type Set struct {
	Entries map[string]int64 `json:"entries"`
}

// NewSet creates an empty seen set.
func NewSet() *Set {
	return &Set{Entries: make(map[string]int64)}
}

// Key builds the dedup key for a (token, price) sighting.
func Key(tokenMint string, price float64) string {
	return tokenMint + ":" + strconv.FormatFloat(price, 'f', -1, 64)
}

// HasSeen reports whether key was sighted within ttl of now. Entries
// older than ttl are treated as unseen even if physically present
// (lazy expiry).
func (s *Set) HasSeen(key string, now time.Time, ttl time.Duration) bool {
	last, ok := s.Entries[key]
	if !ok {
		return false
	}
	return now.Unix()-last < int64(ttl/time.Second)
}

// MarkSeen inserts or refreshes key's last sighting.
func (s *Set) MarkSeen(key string, now time.Time) {
	s.Entries[key] = now.Unix()
}

// Evict truncates the set to at most limit entries, discarding those with
// the oldest last sighting first. Approximate LRU: a sort-and-truncate
// rather than an exact recency structure.
func (s *Set) Evict(limit int) {
	if len(s.Entries) <= limit {
		return
	}

	type pair struct {
		key  string
		seen int64
	}
	pairs := make([]pair, 0, len(s.Entries))
	for k, v := range s.Entries {
		pairs = append(pairs, pair{key: k, seen: v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].seen != pairs[j].seen {
			return pairs[i].seen > pairs[j].seen
		}
		return pairs[i].key < pairs[j].key
	})

	kept := make(map[string]int64, limit)
	for _, p := range pairs[:limit] {
		kept[p.key] = p.seen
	}
	s.Entries = kept
}

// Len returns the number of entries, including stale ones not yet
// evicted.
func (s *Set) Len() int {
	return len(s.Entries)
}

// Store persists per-collection seen sets in the state store.
type Store struct {
	kv store.KV
}

// NewStore creates a Store.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the collection's seen set, empty if none is stored.
func (st *Store) Load(ctx context.Context, entity string) (*Set, error) {
	raw, err := st.kv.Get(ctx, store.SeenKey(entity))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("load seen set for %s: %w", entity, err)
	}

	var s Set
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode seen set for %s: %w", entity, err)
	}
	if s.Entries == nil {
		s.Entries = make(map[string]int64)
	}
	return &s, nil
}

// Save writes the collection's seen set.
func (st *Store) Save(ctx context.Context, entity string, s *Set) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode seen set for %s: %w", entity, err)
	}
	if err := st.kv.Set(ctx, store.SeenKey(entity), raw); err != nil {
		return fmt.Errorf("save seen set for %s: %w", entity, err)
	}
	return nil
}

// Clear deletes the collection's seen set.
func (st *Store) Clear(ctx context.Context, entity string) error {
	if err := st.kv.Delete(ctx, store.SeenKey(entity)); err != nil {
		return fmt.Errorf("clear seen set for %s: %w", entity, err)
	}
	return nil
}
