package alerts

import (
	"context"
	"log/slog"

	"github.com/nftwatch/mewatch/internal/model"
)

// PriceSource provides the current reference price for a collection.
type PriceSource interface {
	FloorPrice(ctx context.Context, symbol string) (float64, error)
}

// Matcher evaluates every user's alerts against current floor prices.
// Fired alerts are removed so they never fire twice.
type Matcher struct {
	mgr    *Manager
	prices PriceSource
	logger *slog.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(mgr *Manager, prices PriceSource, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{mgr: mgr, prices: prices, logger: logger}
}

// Run performs one matching pass over all users and returns the
// triggered events. A price fetch failure skips only that alert; a
// store failure for one user skips only that user.
func (m *Matcher) Run(ctx context.Context) []model.Event {
	users, err := m.mgr.Users(ctx)
	if err != nil {
		m.logger.Error("alert pass failed listing users", "err", err)
		return nil
	}

	var events []model.Event
	for _, user := range users {
		evs, err := m.runUser(ctx, user)
		if err != nil {
			m.logger.Error("alert pass failed for user", "user", user, "err", err)
			continue
		}
		events = append(events, evs...)
	}
	return events
}

// runUser evaluates one user's alerts. Removal of fired alerts is
// deferred until the whole list has been evaluated, then applied by
// index in descending order so earlier removals do not shift later
// indices.
func (m *Matcher) runUser(ctx context.Context, userID string) ([]model.Event, error) {
	list, err := m.mgr.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	var events []model.Event
	var fired []int

	for i, alert := range list {
		floor, err := m.prices.FloorPrice(ctx, alert.Collection)
		if err != nil {
			m.logger.Warn("skipping alert, floor price unavailable",
				"user", userID,
				"collection", alert.Collection,
				"err", err,
			)
			continue
		}

		if floor <= alert.TargetPrice {
			events = append(events, model.AlertTriggered(userID, alert, floor))
			fired = append(fired, i)
		}
	}

	if len(fired) == 0 {
		return nil, nil
	}

	for j := len(fired) - 1; j >= 0; j-- {
		i := fired[j]
		list = append(list[:i], list[i+1:]...)
	}
	if err := m.mgr.save(ctx, userID, list); err != nil {
		return nil, err
	}

	return events, nil
}
