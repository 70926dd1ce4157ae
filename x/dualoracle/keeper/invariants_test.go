package keeper_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

func TestInvariantsHoldAfterCycles(t *testing.T) {
	f := setupFeed(t, nil)
	for i := 0; i < 5; i++ {
		f.SetPrices(10_000+uint64(i)*50, 10_000)
		_, _ = f.Run(asset)
		f.Clock.Advance(1_000)
	}

	msg, broken := keeper.AllInvariants(f.Keeper)(f.Ctx)
	require.False(t, broken, msg)
}

func TestInvariantsDetectCorruptFeed(t *testing.T) {
	f := setupFeed(t, nil)

	feed := f.Feed(t, asset)
	feed.DivergenceTimerStartMs = 500
	feed.LastEvaluatedMs = 100
	f.Ctx.KVStore(f.StoreKey).Set(types.GetFeedKey(asset), types.ModuleCdc.MustMarshal(&feed))

	msg, broken := keeper.FeedConfigInvariant(f.Keeper)(f.Ctx)
	require.True(t, broken)
	require.True(t, strings.Contains(msg, "feed-config"))

	msg, broken = keeper.HistoryInvariant(f.Keeper)(f.Ctx)
	require.True(t, broken)
	require.True(t, strings.Contains(msg, asset))

	_, broken = keeper.AllInvariants(f.Keeper)(f.Ctx)
	require.True(t, broken)
}

func TestInvariantsDetectMissingSlot(t *testing.T) {
	f := setupFeed(t, nil)
	f.Ctx.KVStore(f.StoreKey).Delete(types.GetSlotKey(keepertest.SlotName(asset)))

	msg, broken := keeper.FeedReferenceInvariant(f.Keeper)(f.Ctx)
	require.True(t, broken)
	require.True(t, strings.Contains(msg, "missing slot"))
}
