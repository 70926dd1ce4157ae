package keeper_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// hookStream runs hook inside LatestQuote, after the cycle has loaded its
// config and before it commits.
type hookStream struct {
	types.StreamFeed
	hook func()
}

func (s hookStream) LatestQuote(ctx context.Context, pairID uint32) (types.StreamQuote, error) {
	s.hook()
	return s.StreamFeed.LatestQuote(ctx, pairID)
}

func runWithHook(f *keepertest.Fixture, hook func()) (types.CycleResult, error) {
	handles := f.Handles()
	handles.Stream = hookStream{StreamFeed: f.Stream, hook: hook}
	return f.Keeper.RunUpdateCycle(f.Ctx, f.Clock, handles, asset)
}

// Feed setters wait for a running cycle on the same asset, so the cycle
// commits under the config it loaded and the next cycle sees the change.
func TestFeedSetterWaitsForRunningCycle(t *testing.T) {
	tests := []struct {
		name  string
		set   func(f *keepertest.Fixture) error
		check func(t *testing.T, f *keepertest.Fixture)
	}{
		{
			name: "bounds",
			set: func(f *keepertest.Fixture) error {
				return f.Keeper.SetBounds(f.Ctx, keepertest.Authority, asset, sdkmath.ZeroUint(), sdkmath.NewUint(5_000), 1_000)
			},
			check: func(t *testing.T, f *keepertest.Fixture) {
				requireUint(t, 5_000, f.Feed(t, asset).MaximumEffectivePrice)
				res, err := f.Run(asset)
				require.ErrorIs(t, err, types.ErrInvalidFinalPrice)
				require.Equal(t, types.StatusInvalidFinalPrice, res.Status)
				require.False(t, res.Committed)
			},
		},
		{
			name: "disable",
			set: func(f *keepertest.Fixture) error {
				return f.Keeper.SetEnabled(f.Ctx, keepertest.Authority, asset, false)
			},
			check: func(t *testing.T, f *keepertest.Fixture) {
				require.False(t, f.Feed(t, asset).Enabled)
				res, err := f.Run(asset)
				require.NoError(t, err)
				require.Equal(t, types.StatusFeedDisabled, res.Status)
				require.False(t, res.Committed)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupFeed(t, nil)
			f.SetPrices(10_000, 10_000)

			done := make(chan error, 1)
			res, err := runWithHook(f, func() {
				go func() { done <- tc.set(f) }()
				select {
				case err := <-done:
					t.Errorf("setter finished inside the cycle: %v", err)
				case <-time.After(50 * time.Millisecond):
				}
			})
			require.NoError(t, err)
			require.True(t, res.Committed)
			requireUint(t, 10_000, res.Price)

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("setter did not run after the cycle")
			}
			requireUint(t, 10_000, f.Feed(t, asset).History.Price)

			tc.check(t, f)
		})
	}
}

// Pause and provider toggles do not wait for the feed lock. A cycle that was
// already fetching re-checks them before it writes anything.
func TestCycleRechecksGlobalStateBeforeCommit(t *testing.T) {
	tests := []struct {
		name   string
		set    func(f *keepertest.Fixture) error
		status types.StatusCode
	}{
		{
			name: "pause",
			set: func(f *keepertest.Fixture) error {
				return f.Keeper.Pause(f.Ctx, keepertest.Authority, "incident")
			},
			status: types.StatusPaused,
		},
		{
			name: "primary provider disabled",
			set: func(f *keepertest.Fixture) error {
				return f.Keeper.SetProviderEnabled(f.Ctx, keepertest.Authority, keepertest.StreamProvider, false)
			},
			status: types.StatusProviderDisabled,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupFeed(t, nil)
			f.SetPrices(10_000, 10_000)

			res, err := runWithHook(f, func() { require.NoError(t, tc.set(f)) })
			require.NoError(t, err)
			require.Equal(t, tc.status, res.Status)
			require.False(t, res.Committed)

			feed := f.Feed(t, asset)
			require.True(t, feed.History.Price.IsZero())
			require.Zero(t, feed.LastEvaluatedMs)
			slot, found := f.Keeper.GetSlot(f.Ctx, keepertest.SlotName(asset))
			require.True(t, found)
			require.Zero(t, slot.UpdatedAtMs)
			require.Empty(t, eventsOf(f.Events(), types.EventTypePriceCommitted))
		})
	}
}

// Disabling the secondary mid-cycle drops its reading: a pair that would
// have been rejected as severe commits the primary as a single source.
func TestCycleDropsSecondaryDisabledMidCycle(t *testing.T) {
	f := setupFeed(t, nil)
	f.SetPrices(10_000, 11_000)

	res, err := runWithHook(f, func() {
		require.NoError(t, f.Keeper.SetProviderEnabled(f.Ctx, keepertest.Authority, keepertest.AttestedProvider, false))
	})
	require.NoError(t, err)
	require.Equal(t, types.StatusSuccess, res.Status)
	require.True(t, res.Committed)
	require.True(t, res.SingleSource)
	requireUint(t, 10_000, res.Price)
	require.Empty(t, eventsOf(f.Events(), types.EventTypeDivergenceDetected))
	require.Len(t, eventsOf(f.Events(), types.EventTypeSourceUnavailable), 1)
}
