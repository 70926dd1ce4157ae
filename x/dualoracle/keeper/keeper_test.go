package keeper_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const asset = "ETH"

func setupFeed(t *testing.T, mutate func(*types.FeedConfig)) *keepertest.Fixture {
	t.Helper()
	f := keepertest.NewFixture(t)
	feed := keepertest.DefaultFeed(asset)
	if mutate != nil {
		mutate(&feed)
	}
	f.SeedFeed(t, feed)
	f.ResetEvents()
	return f
}

func eventsOf(events sdk.Events, eventType string) []sdk.Event {
	var out []sdk.Event
	for _, ev := range events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func attr(ev sdk.Event, key string) string {
	for _, a := range ev.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func requireUint(t *testing.T, want uint64, got sdkmath.Uint) {
	t.Helper()
	require.False(t, got.IsNil())
	require.Equal(t, sdkmath.NewUint(want).String(), got.String())
}

func TestNewKeeperDefaults(t *testing.T) {
	f := keepertest.NewFixture(t)
	require.NotNil(t, f.Keeper.Sink())
	require.Equal(t, types.DefaultParams(), f.Keeper.GetParams(f.Ctx))

	feeds, err := f.Keeper.GetAllFeeds(f.Ctx)
	require.NoError(t, err)
	require.Empty(t, feeds)
}

func TestSetParams(t *testing.T) {
	f := keepertest.NewFixture(t)

	params := types.DefaultParams()
	params.PersistTimerOnReject = false
	require.NoError(t, f.Keeper.SetParams(f.Ctx, keepertest.Authority, params))
	require.False(t, f.Keeper.GetParams(f.Ctx).PersistTimerOnReject)

	require.ErrorIs(t, f.Keeper.SetParams(f.Ctx, "mallory", types.DefaultParams()), types.ErrUnauthorized)

	params.PausedBy = "someone"
	require.Error(t, f.Keeper.SetParams(f.Ctx, keepertest.Authority, params))
}
