package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// InitGenesis loads a validated genesis state into the store.
func (k *Keeper) InitGenesis(ctx sdk.Context, data types.GenesisState) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	if err := k.setParams(ctx, data.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}

	for _, provider := range data.Providers {
		if err := k.setProvider(ctx, provider); err != nil {
			return fmt.Errorf("failed to set provider %s: %w", provider.Name, err)
		}
	}

	for _, slot := range data.Slots {
		if err := k.setSlot(ctx, slot); err != nil {
			return fmt.Errorf("failed to set slot %s: %w", slot.Name, err)
		}
	}

	for _, feed := range data.Feeds {
		if err := k.setFeed(ctx, feed); err != nil {
			return fmt.Errorf("failed to set feed %s: %w", feed.AssetID, err)
		}
	}

	k.Logger(ctx).Info("genesis loaded", "state", data.String())
	return nil
}

// ExportGenesis exports the engine state to a genesis state
func (k *Keeper) ExportGenesis(ctx sdk.Context) (*types.GenesisState, error) {
	providers, err := k.GetAllProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export providers: %w", err)
	}
	slots, err := k.GetAllSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export slots: %w", err)
	}
	feeds, err := k.GetAllFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export feeds: %w", err)
	}

	return &types.GenesisState{
		Params:    k.GetParams(ctx),
		Providers: providers,
		Slots:     slots,
		Feeds:     feeds,
	}, nil
}
