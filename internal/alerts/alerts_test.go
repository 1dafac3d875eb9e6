package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftwatch/mewatch/internal/model"
	"github.com/nftwatch/mewatch/internal/store/memory"
)

// stubPrices returns canned floor prices per collection.
type stubPrices struct {
	floors map[string]float64
	err    map[string]error
}

func (s *stubPrices) FloorPrice(_ context.Context, symbol string) (float64, error) {
	if err, ok := s.err[symbol]; ok {
		return 0, err
	}
	return s.floors[symbol], nil
}

func TestManager_AddRejectsDuplicate(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()

	require.NoError(t, mgr.Add(ctx, "user1", "degods", 5))
	err := mgr.Add(ctx, "user1", "degods", 7)
	assert.ErrorIs(t, err, ErrDuplicateAlert)

	// The original alert is untouched.
	list, err := mgr.List(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5.0, list[0].TargetPrice)

	// Same collection for another user is fine.
	require.NoError(t, mgr.Add(ctx, "user2", "degods", 7))
}

func TestManager_RemoveUnknown(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()

	err := mgr.Remove(ctx, "user1", "degods")
	assert.ErrorIs(t, err, ErrAlertNotFound)

	require.NoError(t, mgr.Add(ctx, "user1", "degods", 5))
	err = mgr.Remove(ctx, "user1", "okay_bears")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestManager_Users(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()

	require.NoError(t, mgr.Add(ctx, "zoe", "degods", 5))
	require.NoError(t, mgr.Add(ctx, "adam", "okay_bears", 3))

	users, err := mgr.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"adam", "zoe"}, users)
}

func TestMatcher_FiresOnceAndRemoves(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()
	require.NoError(t, mgr.Add(ctx, "user1", "degods", 5))

	prices := &stubPrices{floors: map[string]float64{"degods": 4.9}}
	m := NewMatcher(mgr, prices, nil)

	events := m.Run(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAlertTriggered, events[0].Type)
	assert.Equal(t, "user1", events[0].UserID)
	assert.Equal(t, 5.0, events[0].TargetPrice)
	assert.Equal(t, 4.9, events[0].FloorPrice)

	// The alert is consumed: it must not fire again even if the floor
	// stays (or returns) below the target.
	events = m.Run(ctx)
	assert.Empty(t, events)

	list, err := mgr.List(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMatcher_DoesNotFireAboveTarget(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()
	require.NoError(t, mgr.Add(ctx, "user1", "degods", 5))

	prices := &stubPrices{floors: map[string]float64{"degods": 5.1}}
	m := NewMatcher(mgr, prices, nil)

	assert.Empty(t, m.Run(ctx))

	list, err := mgr.List(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, list, 1, "unfired alert must remain")
}

func TestMatcher_RemovesMultipleFiredAlerts(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()
	require.NoError(t, mgr.Add(ctx, "user1", "aaa", 5))
	require.NoError(t, mgr.Add(ctx, "user1", "bbb", 5))
	require.NoError(t, mgr.Add(ctx, "user1", "ccc", 5))

	// First and third fire; the middle one survives.
	prices := &stubPrices{floors: map[string]float64{"aaa": 1, "bbb": 9, "ccc": 2}}
	m := NewMatcher(mgr, prices, nil)

	events := m.Run(ctx)
	require.Len(t, events, 2)

	list, err := mgr.List(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bbb", list[0].Collection)
}

func TestMatcher_FetchFailureSkipsOnlyThatAlert(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()
	require.NoError(t, mgr.Add(ctx, "user1", "broken", 5))
	require.NoError(t, mgr.Add(ctx, "user1", "degods", 5))

	prices := &stubPrices{
		floors: map[string]float64{"degods": 4},
		err:    map[string]error{"broken": errors.New("api timeout")},
	}
	m := NewMatcher(mgr, prices, nil)

	events := m.Run(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, "degods", events[0].Collection)

	// The unreachable alert is kept for the next pass.
	list, err := mgr.List(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "broken", list[0].Collection)
}
