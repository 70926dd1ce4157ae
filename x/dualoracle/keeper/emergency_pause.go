package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// Pause halts every update cycle. Cycles become silent no-ops and dry runs
// report StatusPaused until Resume is called. A cycle already fetching when
// Pause lands sees the flag before it commits and writes nothing.
func (k *Keeper) Pause(ctx sdk.Context, actor, reason string) error {
	if err := k.authorize(actor); err != nil {
		return err
	}

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	params := k.getParams(ctx)
	if params.Paused {
		return types.ErrAlreadyPaused
	}
	params.Paused = true
	params.PausedBy = actor
	params.PauseReason = reason
	if err := k.setParams(ctx, params); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePaused,
			sdk.NewAttribute(types.AttributeKeyActor, actor),
			sdk.NewAttribute(types.AttributeKeyReason, reason),
		),
	)
	k.Logger(ctx).Warn("dual oracle paused", "actor", actor, "reason", reason)
	return nil
}

// Resume re-enables update cycles.
func (k *Keeper) Resume(ctx sdk.Context, actor, reason string) error {
	if err := k.authorize(actor); err != nil {
		return err
	}

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	params := k.getParams(ctx)
	if !params.Paused {
		return types.ErrNotPaused
	}
	params.Paused = false
	params.PausedBy = ""
	params.PauseReason = ""
	if err := k.setParams(ctx, params); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeResumed,
			sdk.NewAttribute(types.AttributeKeyActor, actor),
			sdk.NewAttribute(types.AttributeKeyReason, reason),
		),
	)
	return nil
}

// IsPaused reports whether the engine is paused.
func (k *Keeper) IsPaused(ctx sdk.Context) bool {
	return k.GetParams(ctx).Paused
}
