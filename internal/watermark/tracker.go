// Package watermark tracks the per-collection high-water mark: the
// newest block time already processed. The mark filters already-seen
// records out of each overlapping snapshot.
package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nftwatch/mewatch/internal/store"
)

// mark is the stored value shape.
type mark struct {
	LastSeen int64 `json:"last_seen_timestamp"`
}

// Tracker reads and advances watermarks in the state store.
type Tracker struct {
	kv  store.KV
	now func() time.Time
}

// New creates a Tracker.
func New(kv store.KV) *Tracker {
	return &Tracker{kv: kv, now: time.Now}
}

// NewWithClock creates a Tracker with an injected clock, for tests.
func NewWithClock(kv store.KV, now func() time.Time) *Tracker {
	return &Tracker{kv: kv, now: now}
}

// Get returns the collection's watermark. A missing mark defaults to
// "now" so a freshly tracked collection does not flood notifications
// with its entire history.
func (t *Tracker) Get(ctx context.Context, entity string) (int64, error) {
	raw, err := t.kv.Get(ctx, store.WatermarkKey(entity))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return t.now().Unix(), nil
		}
		return 0, fmt.Errorf("get watermark for %s: %w", entity, err)
	}

	var m mark
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, fmt.Errorf("decode watermark for %s: %w", entity, err)
	}
	return m.LastSeen, nil
}

// Advance overwrites the collection's watermark. The caller guarantees
// ts is the maximum block time among records just processed, and calls
// this only after those records are durably reflected in the ledger and
// their events handed to the sink. The mark never moves backward except
// via Reset.
func (t *Tracker) Advance(ctx context.Context, entity string, ts int64) error {
	raw, err := json.Marshal(mark{LastSeen: ts})
	if err != nil {
		return fmt.Errorf("encode watermark for %s: %w", entity, err)
	}
	if err := t.kv.Set(ctx, store.WatermarkKey(entity), raw); err != nil {
		return fmt.Errorf("advance watermark for %s: %w", entity, err)
	}
	return nil
}

// Seed sets the watermark to "now". Called when a collection is first
// tracked so historical activity is treated as already seen.
func (t *Tracker) Seed(ctx context.Context, entity string) error {
	return t.Advance(ctx, entity, t.now().Unix())
}

// Reset deletes the collection's watermark.
func (t *Tracker) Reset(ctx context.Context, entity string) error {
	if err := t.kv.Delete(ctx, store.WatermarkKey(entity)); err != nil {
		return fmt.Errorf("reset watermark for %s: %w", entity, err)
	}
	return nil
}
