package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/nftwatch/mewatch/internal/model"
	"github.com/nftwatch/mewatch/internal/store"
)

// Admin operation errors, returned to the caller with no mutation.
var (
	// ErrDuplicateAlert is returned when a user already has an alert
	// for the collection. Re-adding is rejected, not merged.
	ErrDuplicateAlert = errors.New("alert already exists for this collection")

	// ErrAlertNotFound is returned when removing an alert the user
	// does not have.
	ErrAlertNotFound = errors.New("no alert for this collection")
)

// Manager owns the per-user alert lists in the state store.
type Manager struct {
	kv store.KV
}

// NewManager creates a Manager.
func NewManager(kv store.KV) *Manager {
	return &Manager{kv: kv}
}

// Add registers an alert for a user. A user may hold many alerts, but
// at most one per collection.
func (m *Manager) Add(ctx context.Context, userID, collection string, targetPrice float64) error {
	list, err := m.List(ctx, userID)
	if err != nil {
		return err
	}

	for _, a := range list {
		if a.Collection == collection {
			return ErrDuplicateAlert
		}
	}

	list = append(list, model.Alert{Collection: collection, TargetPrice: targetPrice})
	return m.save(ctx, userID, list)
}

// Remove deletes a user's alert for a collection.
func (m *Manager) Remove(ctx context.Context, userID, collection string) error {
	list, err := m.List(ctx, userID)
	if err != nil {
		return err
	}

	for i, a := range list {
		if a.Collection == collection {
			list = append(list[:i], list[i+1:]...)
			return m.save(ctx, userID, list)
		}
	}
	return ErrAlertNotFound
}

// List returns a user's alerts. A user with no alerts gets an empty
// list, not an error.
func (m *Manager) List(ctx context.Context, userID string) ([]model.Alert, error) {
	raw, err := m.kv.Get(ctx, store.AlertsKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alerts for %s: %w", userID, err)
	}

	var list []model.Alert
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode alerts for %s: %w", userID, err)
	}
	return list, nil
}

// Users returns every user ID holding at least one alert, sorted for
// deterministic matcher passes.
func (m *Manager) Users(ctx context.Context) ([]string, error) {
	entries, err := m.kv.Scan(ctx, store.AlertsPrefix())
	if err != nil {
		return nil, fmt.Errorf("scan alerts: %w", err)
	}

	users := make([]string, 0, len(entries))
	for key := range entries {
		if user := store.UserFromAlertsKey(key); user != "" {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users, nil
}

// save writes the list, deleting the key when it empties out.
func (m *Manager) save(ctx context.Context, userID string, list []model.Alert) error {
	if len(list) == 0 {
		if err := m.kv.Delete(ctx, store.AlertsKey(userID)); err != nil {
			return fmt.Errorf("delete alerts for %s: %w", userID, err)
		}
		return nil
	}

	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode alerts for %s: %w", userID, err)
	}
	if err := m.kv.Set(ctx, store.AlertsKey(userID), raw); err != nil {
		return fmt.Errorf("save alerts for %s: %w", userID, err)
	}
	return nil
}
