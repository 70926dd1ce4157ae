package keeper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

func TestPauseResume(t *testing.T) {
	f := setupFeed(t, nil)
	admin := keepertest.Authority
	f.SetPrices(10_000, 10_000)

	require.False(t, f.Keeper.IsPaused(f.Ctx))
	require.NoError(t, f.Keeper.Pause(f.Ctx, admin, "provider outage"))
	require.True(t, f.Keeper.IsPaused(f.Ctx))

	params := f.Keeper.GetParams(f.Ctx)
	require.Equal(t, admin, params.PausedBy)
	require.Equal(t, "provider outage", params.PauseReason)

	require.ErrorIs(t, f.Keeper.Pause(f.Ctx, admin, "again"), types.ErrAlreadyPaused)

	res, err := f.Run(asset)
	require.NoError(t, err)
	require.Equal(t, types.StatusPaused, res.Status)
	require.Zero(t, f.Stream.Calls())

	require.NoError(t, f.Keeper.Resume(f.Ctx, admin, "resolved"))
	require.False(t, f.Keeper.IsPaused(f.Ctx))
	require.Empty(t, f.Keeper.GetParams(f.Ctx).PausedBy)
	require.ErrorIs(t, f.Keeper.Resume(f.Ctx, admin, "again"), types.ErrNotPaused)

	res, err = f.Run(asset)
	require.NoError(t, err)
	require.True(t, res.Committed)

	require.Len(t, eventsOf(f.Events(), types.EventTypePaused), 1)
	require.Len(t, eventsOf(f.Events(), types.EventTypeResumed), 1)
}

func TestPauseRequiresAuthority(t *testing.T) {
	f := keepertest.NewFixture(t)
	require.ErrorIs(t, f.Keeper.Pause(f.Ctx, "mallory", "x"), types.ErrUnauthorized)
	require.False(t, f.Keeper.IsPaused(f.Ctx))
	require.ErrorIs(t, f.Keeper.Resume(f.Ctx, "mallory", "x"), types.ErrUnauthorized)
}
