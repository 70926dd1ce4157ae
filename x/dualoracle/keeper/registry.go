package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// SlotRegistry is the store-backed price registry. Downstream consumers read
// committed prices from its slots. Callers hold the keeper's store lock.
type SlotRegistry struct {
	k *Keeper
}

var _ types.PriceRegistrySink = SlotRegistry{}

// Write stores a committed price in slot.
func (r SlotRegistry) Write(ctx context.Context, slot string, price sdkmath.Uint, atMs uint64) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	record, found := r.k.getSlot(sdkCtx, slot)
	if !found {
		return types.ErrSlotNotFound.Wrapf("slot %s", slot)
	}
	record.Price = price
	record.UpdatedAtMs = atMs
	return r.k.setSlot(sdkCtx, record)
}

// Read returns the slot's last price, whether it is within maxStalenessMs of
// now, and the slot's decimals.
func (r SlotRegistry) Read(ctx context.Context, slot string, nowMs, maxStalenessMs uint64) (bool, sdkmath.Uint, uint32, error) {
	record, found := r.k.getSlot(sdk.UnwrapSDKContext(ctx), slot)
	if !found {
		return false, sdkmath.ZeroUint(), 0, types.ErrSlotNotFound.Wrapf("slot %s", slot)
	}
	fresh := record.UpdatedAtMs != 0 && types.IsFresh(nowMs, record.UpdatedAtMs, maxStalenessMs)
	return fresh, record.Price, record.Decimals, nil
}

// GetSlot returns a price-registry slot.
func (k *Keeper) GetSlot(ctx sdk.Context, name string) (types.OracleSlot, bool) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.getSlot(ctx, name)
}

// ReadSlot reads a committed price the way downstream consumers do.
func (k *Keeper) ReadSlot(ctx sdk.Context, name string, nowMs, maxStalenessMs uint64) (bool, sdkmath.Uint, uint32, error) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.sink.Read(ctx, name, nowMs, maxStalenessMs)
}

func (k *Keeper) getSlot(ctx sdk.Context, name string) (types.OracleSlot, bool) {
	bz := k.getStore(ctx).Get(types.GetSlotKey(name))
	if bz == nil {
		return types.OracleSlot{}, false
	}
	var slot types.OracleSlot
	if err := k.cdc.Unmarshal(bz, &slot); err != nil {
		k.Logger(ctx).Error("failed to decode slot", "slot", name, "error", err)
		return types.OracleSlot{}, false
	}
	if slot.Price.IsNil() {
		slot.Price = sdkmath.ZeroUint()
	}
	return slot, true
}

func (k *Keeper) setSlot(ctx sdk.Context, slot types.OracleSlot) error {
	if slot.Price.IsNil() {
		slot.Price = sdkmath.ZeroUint()
	}
	bz, err := k.cdc.Marshal(&slot)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(types.GetSlotKey(slot.Name), bz)
	return nil
}

// GetAllSlots returns every registered slot.
func (k *Keeper) GetAllSlots(ctx sdk.Context) ([]types.OracleSlot, error) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.SlotKeyPrefix)
	defer iterator.Close()

	slots := make([]types.OracleSlot, 0, 16)
	for ; iterator.Valid(); iterator.Next() {
		var slot types.OracleSlot
		if err := k.cdc.Unmarshal(iterator.Value(), &slot); err != nil {
			return nil, err
		}
		if slot.Price.IsNil() {
			slot.Price = sdkmath.ZeroUint()
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
