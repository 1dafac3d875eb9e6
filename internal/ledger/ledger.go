package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nftwatch/mewatch/internal/model"
	"github.com/nftwatch/mewatch/internal/store"
)

// Ledger reconciles activity records against per-token listing entries.
type Ledger struct {
	kv       store.KV
	cooldown time.Duration
}

// New creates a Ledger. cooldown throttles price-update notifications
// per token; zero disables throttling.
func New(kv store.KV, cooldown time.Duration) *Ledger {
	return &Ledger{kv: kv, cooldown: cooldown}
}

// Apply reconciles one activity record and returns the resulting event,
// or nil if the record is redundant or suppressed. A store error means
// the record is not durably reflected; the caller must stop processing
// the collection's remaining batch and leave the watermark unchanged.
func (l *Ledger) Apply(ctx context.Context, act model.Activity) (*model.Event, error) {
	switch act.Kind {
	case model.ActivityList:
		return l.applyList(ctx, act)
	case model.ActivityDelist:
		return l.applyDelist(ctx, act)
	default:
		// Sales, bids etc. share the feed; they are not listing state.
		return nil, nil
	}
}

func (l *Ledger) applyList(ctx context.Context, act model.Activity) (*model.Event, error) {
	key := store.LedgerKey(act.Collection, act.TokenMint)

	entry, err := l.get(ctx, key)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		// First sighting: create the entry and surface it.
		created := model.LedgerEntry{
			Price:        act.Price,
			Seller:       act.Seller,
			LastNotified: act.BlockTime,
		}
		if err := l.put(ctx, key, created); err != nil {
			return nil, err
		}
		ev := model.NewListing(act)
		return &ev, nil
	}

	if entry.Price == act.Price {
		// Redundant re-list, nothing changed.
		return nil, nil
	}

	suppressed := Suppress(entry.LastNotified, act.BlockTime, l.cooldown)

	updated := model.LedgerEntry{
		Price:        act.Price,
		Seller:       act.Seller,
		LastNotified: entry.LastNotified,
	}
	if !suppressed {
		updated.LastNotified = act.BlockTime
	}
	if err := l.put(ctx, key, updated); err != nil {
		return nil, err
	}

	if suppressed {
		return nil, nil
	}
	ev := model.PriceUpdate(act, entry.Price)
	return &ev, nil
}

func (l *Ledger) applyDelist(ctx context.Context, act model.Activity) (*model.Event, error) {
	key := store.LedgerKey(act.Collection, act.TokenMint)

	entry, err := l.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// Already gone; deleting an absent entry is a no-op.
		return nil, nil
	}

	if err := l.kv.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete ledger entry %s: %w", key, err)
	}
	ev := model.Delist(act, *entry)
	return &ev, nil
}

// Entry returns the stored entry for a token, or nil if not listed.
func (l *Ledger) Entry(ctx context.Context, entity, tokenMint string) (*model.LedgerEntry, error) {
	return l.get(ctx, store.LedgerKey(entity, tokenMint))
}

// Purge deletes every ledger entry for a collection. Used when the
// collection is untracked.
func (l *Ledger) Purge(ctx context.Context, entity string) error {
	entries, err := l.kv.Scan(ctx, store.LedgerPrefix(entity))
	if err != nil {
		return fmt.Errorf("scan ledger for %s: %w", entity, err)
	}
	for key := range entries {
		if err := l.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("purge ledger entry %s: %w", key, err)
		}
	}
	return nil
}

func (l *Ledger) get(ctx context.Context, key string) (*model.LedgerEntry, error) {
	raw, err := l.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry %s: %w", key, err)
	}

	var entry model.LedgerEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode ledger entry %s: %w", key, err)
	}
	return &entry, nil
}

func (l *Ledger) put(ctx context.Context, key string, entry model.LedgerEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode ledger entry %s: %w", key, err)
	}
	if err := l.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("put ledger entry %s: %w", key, err)
	}
	return nil
}
