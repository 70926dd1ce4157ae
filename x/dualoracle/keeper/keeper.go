package keeper

import (
	"fmt"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// Keeper owns every FeedConfig and sequences update cycles against them.
//
// Store access is serialized by storeMu; cycles for the same asset are
// additionally serialized by a per-asset lock so that source fetches for
// different feeds can proceed in parallel.
type Keeper struct {
	cdc       *codec.LegacyAmino
	storeKey  storetypes.StoreKey
	authority types.AdminAuthority
	sink      types.PriceRegistrySink
	metrics   *Metrics

	storeMu sync.Mutex
	locks   *feedLocks
}

// Option customizes a Keeper.
type Option func(*Keeper)

// WithSink replaces the store-backed price registry with an external sink.
func WithSink(sink types.PriceRegistrySink) Option {
	return func(k *Keeper) { k.sink = sink }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(k *Keeper) { k.metrics = m }
}

// NewKeeper creates a new dualoracle Keeper instance
func NewKeeper(
	cdc *codec.LegacyAmino,
	storeKey storetypes.StoreKey,
	authority types.AdminAuthority,
	opts ...Option,
) *Keeper {
	k := &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		authority: authority,
		locks:     newFeedLocks(),
	}
	k.sink = SlotRegistry{k: k}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Logger returns a module-specific logger
func (k *Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// Sink returns the price registry the keeper commits into.
func (k *Keeper) Sink() types.PriceRegistrySink {
	return k.sink
}

func (k *Keeper) getStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

func (k *Keeper) authorize(actor string) error {
	if k.authority == nil {
		return types.ErrUnauthorized.Wrap("no admin authority configured")
	}
	return k.authority.Authorize(actor)
}

// GetParams returns the engine parameters, falling back to defaults.
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.getParams(ctx)
}

func (k *Keeper) getParams(ctx sdk.Context) types.Params {
	bz := k.getStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := k.cdc.Unmarshal(bz, &params); err != nil {
		k.Logger(ctx).Error("failed to decode params, using defaults", "error", err)
		return types.DefaultParams()
	}
	return params
}

// SetParams sets the engine parameters
func (k *Keeper) SetParams(ctx sdk.Context, actor string, params types.Params) error {
	if err := k.authorize(actor); err != nil {
		return err
	}
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.setParams(ctx, params)
}

func (k *Keeper) setParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	bz, err := k.cdc.Marshal(&params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	k.getStore(ctx).Set(types.ParamsKey, bz)
	return nil
}
