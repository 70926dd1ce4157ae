package keeper

import (
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// CreateFeed registers a new feed. The divergence timer and history always
// start empty regardless of what the caller passes.
func (k *Keeper) CreateFeed(ctx sdk.Context, actor string, feed types.FeedConfig) error {
	if err := k.authorize(actor); err != nil {
		return err
	}

	unlock := k.locks.lock(feed.AssetID)
	defer unlock()
	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	if _, found := k.getFeed(ctx, feed.AssetID); found {
		return types.ErrFeedExists.Wrapf("asset %s", feed.AssetID)
	}

	feed.DivergenceTimerStartMs = 0
	feed.LastEvaluatedMs = 0
	feed.History = types.HistoricalPrice{Price: sdkmath.ZeroUint()}
	feed.Normalize()

	if err := k.validateFeedRefs(ctx, feed); err != nil {
		return err
	}
	if err := k.setFeed(ctx, feed); err != nil {
		return err
	}

	k.emitFeedUpdated(ctx, actor, feed.AssetID, "created")
	k.Logger(ctx).Info("feed created", "asset", feed.AssetID, "slot", feed.OracleSlot, "primary", feed.Primary.Provider)
	return nil
}

// SetThresholds updates the divergence thresholds and the warning-band tolerance.
func (k *Keeper) SetThresholds(ctx sdk.Context, actor, assetID string, threshold1, threshold2, maxDurationMs uint64) error {
	return k.updateFeed(ctx, actor, assetID, "thresholds", func(feed *types.FeedConfig) error {
		if err := types.ValidateThresholds(threshold1, threshold2); err != nil {
			return err
		}
		feed.PriceDiffThreshold1 = threshold1
		feed.PriceDiffThreshold2 = threshold2
		feed.MaxDurationWithinThresholdsMs = maxDurationMs
		return nil
	})
}

// SetBounds updates the absolute price bounds and the maximum span from history.
func (k *Keeper) SetBounds(ctx sdk.Context, actor, assetID string, minimum, maximum sdkmath.Uint, maxSpanBp uint64) error {
	return k.updateFeed(ctx, actor, assetID, "bounds", func(feed *types.FeedConfig) error {
		if err := types.ValidateBounds(minimum, maximum); err != nil {
			return err
		}
		feed.MinimumEffectivePrice = minimum
		feed.MaximumEffectivePrice = maximum
		feed.MaximumAllowedSpanBp = maxSpanBp
		return nil
	})
}

// SetProviders rebinds the primary and secondary providers.
func (k *Keeper) SetProviders(ctx sdk.Context, actor, assetID string, primary, secondary types.ProviderBinding) error {
	return k.updateFeed(ctx, actor, assetID, "providers", func(feed *types.FeedConfig) error {
		feed.Primary = primary
		feed.Secondary = secondary
		return nil
	})
}

// SetEnabled toggles the feed. Disabling is the soft delete.
func (k *Keeper) SetEnabled(ctx sdk.Context, actor, assetID string, enabled bool) error {
	return k.updateFeed(ctx, actor, assetID, "enabled", func(feed *types.FeedConfig) error {
		feed.Enabled = enabled
		return nil
	})
}

// SetHistoricalTtl updates how long the history stays authoritative.
func (k *Keeper) SetHistoricalTtl(ctx sdk.Context, actor, assetID string, ttlMs uint64) error {
	return k.updateFeed(ctx, actor, assetID, "historical_ttl", func(feed *types.FeedConfig) error {
		feed.HistoricalPriceTtlMs = ttlMs
		return nil
	})
}

// SetFreshnessWindow updates the maximum reading age.
func (k *Keeper) SetFreshnessWindow(ctx sdk.Context, actor, assetID string, maxDiffMs uint64) error {
	return k.updateFeed(ctx, actor, assetID, "freshness_window", func(feed *types.FeedConfig) error {
		feed.MaxTimestampDiffMs = maxDiffMs
		return nil
	})
}

// updateFeed holds the feed lock so a mutation never lands inside a running
// cycle for the same asset. Lock order is feed lock, then storeMu.
func (k *Keeper) updateFeed(ctx sdk.Context, actor, assetID, field string, mutate func(*types.FeedConfig) error) error {
	if err := k.authorize(actor); err != nil {
		return err
	}

	unlock := k.locks.lock(assetID)
	defer unlock()
	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	feed, found := k.getFeed(ctx, assetID)
	if !found {
		return types.WrapWithRecovery(types.ErrFeedNotFound, "asset %s", assetID)
	}
	if err := mutate(&feed); err != nil {
		return err
	}
	if err := k.validateFeedRefs(ctx, feed); err != nil {
		return err
	}
	if err := k.setFeed(ctx, feed); err != nil {
		return err
	}

	k.emitFeedUpdated(ctx, actor, assetID, field)
	return nil
}

// validateFeedRefs checks the record's own invariants plus its references.
func (k *Keeper) validateFeedRefs(ctx sdk.Context, feed types.FeedConfig) error {
	if err := feed.ValidateBasic(); err != nil {
		return err
	}
	slot, found := k.getSlot(ctx, feed.OracleSlot)
	if !found {
		return types.ErrSlotNotFound.Wrapf("feed %s references slot %s", feed.AssetID, feed.OracleSlot)
	}
	if slot.Decimals != feed.OracleDecimals {
		return types.ErrInvalidDecimals.Wrapf("feed %s uses %d decimals, slot %s holds %d",
			feed.AssetID, feed.OracleDecimals, slot.Name, slot.Decimals)
	}
	for _, binding := range []types.ProviderBinding{feed.Primary, feed.Secondary} {
		if binding.IsEmpty() {
			continue
		}
		if _, found := k.getProvider(ctx, binding.Provider); !found {
			return types.WrapWithRecovery(types.ErrProviderNotFound, "feed %s binds %s", feed.AssetID, binding.Provider)
		}
	}
	return nil
}

// RegisterProvider adds a provider that feeds can bind to.
func (k *Keeper) RegisterProvider(ctx sdk.Context, actor string, provider types.ProviderConfig) error {
	if err := k.authorize(actor); err != nil {
		return err
	}
	if err := provider.ValidateBasic(); err != nil {
		return err
	}

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	if _, found := k.getProvider(ctx, provider.Name); found {
		return types.ErrProviderExists.Wrapf("provider %s", provider.Name)
	}
	if err := k.setProvider(ctx, provider); err != nil {
		return err
	}
	k.emitProviderUpdated(ctx, actor, provider)
	return nil
}

// SetProviderEnabled toggles a provider for every feed bound to it. Cycles
// in flight re-check the flag before committing.
func (k *Keeper) SetProviderEnabled(ctx sdk.Context, actor, name string, enabled bool) error {
	if err := k.authorize(actor); err != nil {
		return err
	}

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	provider, found := k.getProvider(ctx, name)
	if !found {
		return types.ErrProviderNotFound.Wrapf("provider %s", name)
	}
	provider.Enabled = enabled
	if err := k.setProvider(ctx, provider); err != nil {
		return err
	}
	k.emitProviderUpdated(ctx, actor, provider)
	return nil
}

// RegisterSlot creates a price-registry slot. Re-registering an existing slot
// with the same decimals is a no-op.
func (k *Keeper) RegisterSlot(ctx sdk.Context, actor, name string, decimals uint32) error {
	if err := k.authorize(actor); err != nil {
		return err
	}
	slot := types.OracleSlot{Name: name, Decimals: decimals, Price: sdkmath.ZeroUint()}
	if err := slot.ValidateBasic(); err != nil {
		return err
	}

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	if existing, found := k.getSlot(ctx, name); found {
		if existing.Decimals != decimals {
			return types.ErrInvalidDecimals.Wrapf("slot %s already holds %d decimals", name, existing.Decimals)
		}
		return nil
	}
	return k.setSlot(ctx, slot)
}

func (k *Keeper) emitFeedUpdated(ctx sdk.Context, actor, assetID, field string) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeFeedUpdated,
			sdk.NewAttribute(types.AttributeKeyAsset, assetID),
			sdk.NewAttribute(types.AttributeKeyField, field),
			sdk.NewAttribute(types.AttributeKeyActor, actor),
		),
	)
}

func (k *Keeper) emitProviderUpdated(ctx sdk.Context, actor string, provider types.ProviderConfig) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeProviderUpdated,
			sdk.NewAttribute(types.AttributeKeyProvider, provider.Name),
			sdk.NewAttribute(types.AttributeKeyEnabled, strconv.FormatBool(provider.Enabled)),
			sdk.NewAttribute(types.AttributeKeyActor, actor),
			sdk.NewAttribute(types.AttributeKeyField, fmt.Sprintf("kind=%s", provider.Kind)),
		),
	)
}
