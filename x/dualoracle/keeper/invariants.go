package keeper

import (
	"fmt"
	"strings"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// AllInvariants runs all invariants of the dual oracle engine
func AllInvariants(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := FeedConfigInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		res, stop = FeedReferenceInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return HistoryInvariant(k)(ctx)
	}
}

// FeedConfigInvariant checks that every stored feed decodes and satisfies its
// own cross-field rules.
func FeedConfigInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var issues []string

		k.storeMu.Lock()
		defer k.storeMu.Unlock()

		iter := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.FeedKeyPrefix)
		defer iter.Close()

		for ; iter.Valid(); iter.Next() {
			var feed types.FeedConfig
			if err := k.cdc.Unmarshal(iter.Value(), &feed); err != nil {
				issues = append(issues, fmt.Sprintf("error unmarshaling feed: %v", err))
				continue
			}
			feed.Normalize()
			if err := feed.ValidateBasic(); err != nil {
				issues = append(issues, fmt.Sprintf("feed %s: %v", feed.AssetID, err))
			}
		}

		return formatIssues("feed-config", issues)
	}
}

// FeedReferenceInvariant checks that every feed points at a registered slot
// with matching decimals and at registered providers.
func FeedReferenceInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var issues []string

		k.storeMu.Lock()
		defer k.storeMu.Unlock()

		_ = k.iterateFeeds(ctx, func(feed types.FeedConfig) bool {
			slot, found := k.getSlot(ctx, feed.OracleSlot)
			switch {
			case !found:
				issues = append(issues, fmt.Sprintf("feed %s references missing slot %s", feed.AssetID, feed.OracleSlot))
			case slot.Decimals != feed.OracleDecimals:
				issues = append(issues, fmt.Sprintf("feed %s decimals %d differ from slot %s decimals %d",
					feed.AssetID, feed.OracleDecimals, slot.Name, slot.Decimals))
			}
			for _, binding := range []types.ProviderBinding{feed.Primary, feed.Secondary} {
				if binding.IsEmpty() {
					continue
				}
				if _, ok := k.getProvider(ctx, binding.Provider); !ok {
					issues = append(issues, fmt.Sprintf("feed %s references missing provider %s", feed.AssetID, binding.Provider))
				}
			}
			return false
		})

		return formatIssues("feed-references", issues)
	}
}

// HistoryInvariant checks that history and the divergence timer were never
// written after the feed's last evaluation.
func HistoryInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var issues []string

		k.storeMu.Lock()
		defer k.storeMu.Unlock()

		_ = k.iterateFeeds(ctx, func(feed types.FeedConfig) bool {
			if feed.History.UpdatedAtMs > feed.LastEvaluatedMs {
				issues = append(issues, fmt.Sprintf("feed %s history at %d is after last evaluation %d",
					feed.AssetID, feed.History.UpdatedAtMs, feed.LastEvaluatedMs))
			}
			if !feed.History.Price.IsZero() && feed.History.UpdatedAtMs == 0 {
				issues = append(issues, fmt.Sprintf("feed %s has a history price without a timestamp", feed.AssetID))
			}
			if feed.DivergenceTimerStartMs > feed.LastEvaluatedMs {
				issues = append(issues, fmt.Sprintf("feed %s timer %d started after last evaluation %d",
					feed.AssetID, feed.DivergenceTimerStartMs, feed.LastEvaluatedMs))
			}
			return false
		})

		return formatIssues("history", issues)
	}
}

func formatIssues(route string, issues []string) (string, bool) {
	var msg string
	if len(issues) > 0 {
		msg = fmt.Sprintf("%d %s issues:\n  - %s\n", len(issues), route, strings.Join(issues, "\n  - "))
	}
	return sdk.FormatInvariant(types.ModuleName, route, msg), len(issues) > 0
}
