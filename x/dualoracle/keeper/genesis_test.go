package keeper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

func TestGenesisRoundTrip(t *testing.T) {
	f := setupFeed(t, nil)
	f.SetPrices(10_000, 10_300)
	_, err := f.Run(asset)
	require.NoError(t, err)

	exported, err := f.Keeper.ExportGenesis(f.Ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Feeds, 1)
	require.Len(t, exported.Providers, 2)
	require.Len(t, exported.Slots, 1)
	require.NotZero(t, exported.Feeds[0].DivergenceTimerStartMs)

	g := keepertest.NewFixture(t)
	require.NoError(t, g.Keeper.InitGenesis(g.Ctx, *exported))

	reexported, err := g.Keeper.ExportGenesis(g.Ctx)
	require.NoError(t, err)
	require.Equal(t, exported, reexported)

	msg, broken := keeper.AllInvariants(g.Keeper)(g.Ctx)
	require.False(t, broken, msg)
}

func TestInitGenesisRejectsInvalidState(t *testing.T) {
	f := keepertest.NewFixture(t)
	gs := types.DefaultGenesis()
	gs.Feeds = append(gs.Feeds, keepertest.DefaultFeed(asset))

	require.ErrorIs(t, f.Keeper.InitGenesis(f.Ctx, *gs), types.ErrSlotNotFound)
	_, found := f.Keeper.GetFeed(f.Ctx, asset)
	require.False(t, found)
}
