package keeper

import (
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// GetFeed returns the feed registered for assetID.
func (k *Keeper) GetFeed(ctx sdk.Context, assetID string) (types.FeedConfig, bool) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.getFeed(ctx, assetID)
}

func (k *Keeper) getFeed(ctx sdk.Context, assetID string) (types.FeedConfig, bool) {
	bz := k.getStore(ctx).Get(types.GetFeedKey(assetID))
	if bz == nil {
		return types.FeedConfig{}, false
	}
	var feed types.FeedConfig
	if err := k.cdc.Unmarshal(bz, &feed); err != nil {
		k.Logger(ctx).Error("failed to decode feed", "asset", assetID, "error", err)
		return types.FeedConfig{}, false
	}
	feed.Normalize()
	return feed, true
}

func (k *Keeper) setFeed(ctx sdk.Context, feed types.FeedConfig) error {
	feed.Normalize()
	bz, err := k.cdc.Marshal(&feed)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(types.GetFeedKey(feed.AssetID), bz)
	return nil
}

// IterateFeeds walks every feed in key order until cb returns true.
func (k *Keeper) IterateFeeds(ctx sdk.Context, cb func(feed types.FeedConfig) (stop bool)) error {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.iterateFeeds(ctx, cb)
}

func (k *Keeper) iterateFeeds(ctx sdk.Context, cb func(feed types.FeedConfig) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.FeedKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var feed types.FeedConfig
		if err := k.cdc.Unmarshal(iterator.Value(), &feed); err != nil {
			return err
		}
		feed.Normalize()
		if cb(feed) {
			break
		}
	}
	return nil
}

// GetAllFeeds returns every registered feed.
func (k *Keeper) GetAllFeeds(ctx sdk.Context) ([]types.FeedConfig, error) {
	feeds := make([]types.FeedConfig, 0, 16)
	err := k.IterateFeeds(ctx, func(feed types.FeedConfig) bool {
		feeds = append(feeds, feed)
		return false
	})
	return feeds, err
}

// GetProvider returns a registered provider by name.
func (k *Keeper) GetProvider(ctx sdk.Context, name string) (types.ProviderConfig, bool) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.getProvider(ctx, name)
}

func (k *Keeper) getProvider(ctx sdk.Context, name string) (types.ProviderConfig, bool) {
	bz := k.getStore(ctx).Get(types.GetProviderKey(name))
	if bz == nil {
		return types.ProviderConfig{}, false
	}
	var provider types.ProviderConfig
	if err := k.cdc.Unmarshal(bz, &provider); err != nil {
		k.Logger(ctx).Error("failed to decode provider", "provider", name, "error", err)
		return types.ProviderConfig{}, false
	}
	return provider, true
}

func (k *Keeper) setProvider(ctx sdk.Context, provider types.ProviderConfig) error {
	bz, err := k.cdc.Marshal(&provider)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(types.GetProviderKey(provider.Name), bz)
	return nil
}

// GetAllProviders returns every registered provider.
func (k *Keeper) GetAllProviders(ctx sdk.Context) ([]types.ProviderConfig, error) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.ProviderKeyPrefix)
	defer iterator.Close()

	providers := make([]types.ProviderConfig, 0, 4)
	for ; iterator.Valid(); iterator.Next() {
		var provider types.ProviderConfig
		if err := k.cdc.Unmarshal(iterator.Value(), &provider); err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, nil
}
