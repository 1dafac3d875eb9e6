// Package watchlist owns the set of tracked collections. The set lives
// in the state store, never in a process-global, so admin changes and
// poll cycles observe the same list.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nftwatch/mewatch/internal/ledger"
	"github.com/nftwatch/mewatch/internal/seencache"
	"github.com/nftwatch/mewatch/internal/store"
	"github.com/nftwatch/mewatch/internal/watermark"
)

// Admin operation errors, returned to the caller with no mutation.
var (
	// ErrAlreadyTracked is returned when adding a collection that is
	// already on the watchlist.
	ErrAlreadyTracked = errors.New("collection is already tracked")

	// ErrNotTracked is returned when removing a collection that is not
	// on the watchlist.
	ErrNotTracked = errors.New("collection is not tracked")
)

// tracked is the stored value shape.
type tracked struct {
	Symbols []string `json:"symbols"`
}

// Registry is the tracked-collection admin surface.
type Registry struct {
	kv    store.KV
	marks *watermark.Tracker
	book  *ledger.Ledger
	seen  *seencache.Store
}

// NewRegistry creates a Registry. marks seeds a new collection's
// watermark; book and seen are used to reset state on removal.
func NewRegistry(kv store.KV, marks *watermark.Tracker, book *ledger.Ledger, seen *seencache.Store) *Registry {
	return &Registry{kv: kv, marks: marks, book: book, seen: seen}
}

// Normalize canonicalizes a collection symbol.
func Normalize(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// List returns the tracked collection symbols in insertion order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	raw, err := r.kv.Get(ctx, store.TrackedKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tracked collections: %w", err)
	}

	var t tracked
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode tracked collections: %w", err)
	}
	return t.Symbols, nil
}

// Add starts tracking a collection. The watermark is seeded to "now"
// so historical activity is not replayed. Returns the normalized
// symbol, or ErrAlreadyTracked.
func (r *Registry) Add(ctx context.Context, symbol string) (string, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return "", errors.New("collection symbol is empty")
	}

	symbols, err := r.List(ctx)
	if err != nil {
		return "", err
	}

	for _, s := range symbols {
		if s == symbol {
			return symbol, ErrAlreadyTracked
		}
	}

	if err := r.save(ctx, append(symbols, symbol)); err != nil {
		return "", err
	}
	if err := r.marks.Seed(ctx, symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

// Remove stops tracking a collection and resets its watermark, ledger
// entries, and seen set, so re-adding it later starts clean. State is
// purged before the symbol leaves the list: if a purge fails midway the
// collection stays tracked and the removal can be retried, instead of
// orphaning state that a later Add would inherit.
func (r *Registry) Remove(ctx context.Context, symbol string) error {
	symbol = Normalize(symbol)

	symbols, err := r.List(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, s := range symbols {
		if s == symbol {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotTracked
	}

	if err := r.marks.Reset(ctx, symbol); err != nil {
		return err
	}
	if err := r.book.Purge(ctx, symbol); err != nil {
		return err
	}
	if err := r.seen.Clear(ctx, symbol); err != nil {
		return err
	}

	symbols = append(symbols[:idx], symbols[idx+1:]...)
	return r.save(ctx, symbols)
}

func (r *Registry) save(ctx context.Context, symbols []string) error {
	raw, err := json.Marshal(tracked{Symbols: symbols})
	if err != nil {
		return fmt.Errorf("encode tracked collections: %w", err)
	}
	if err := r.kv.Set(ctx, store.TrackedKey, raw); err != nil {
		return fmt.Errorf("save tracked collections: %w", err)
	}
	return nil
}
