package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

type blockClock struct {
	nowMs uint64
}

func (c blockClock) NowMs() uint64 { return c.nowMs }

// BlockClock reads time from the context's block header.
func BlockClock(ctx sdk.Context) types.Clock {
	ms := ctx.BlockTime().UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return blockClock{nowMs: uint64(ms)}
}
