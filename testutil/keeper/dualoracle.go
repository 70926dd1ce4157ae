package keeper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// Authority is the admin actor every test keeper accepts.
const Authority = "dualoracle-admin"

// Names used by SeedFeed.
const (
	StreamProvider   = "stream-a"
	AttestedProvider = "attested-b"
	StreamPairRef    = "7"
	AttestedFeedID   = "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"
	OracleDecimals   = uint32(8)
)

// Fixture bundles a keeper over an in-memory store with controllable sources.
type Fixture struct {
	Keeper   *keeper.Keeper
	Ctx      sdk.Context
	Store    storetypes.CommitMultiStore
	StoreKey *storetypes.KVStoreKey
	Clock    *types.ManualClock
	Stream   *FakeStream
	Attested *FakeAttested
}

// DualOracleKeeper creates a test keeper backed by an in-memory store.
func DualOracleKeeper(t testing.TB, opts ...keeper.Option) (*keeper.Keeper, sdk.Context) {
	f := NewFixture(t, opts...)
	return f.Keeper, f.Ctx
}

// NewFixture creates a keeper, context, manual clock and fake sources.
func NewFixture(t testing.TB, opts ...keeper.Option) *Fixture {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	k := keeper.NewKeeper(types.ModuleCdc, storeKey, types.StaticAuthority(Authority), opts...)

	start := time.Unix(1_700_000_000, 0).UTC()
	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: start, Height: 1}, false, log.NewNopLogger())

	return &Fixture{
		Keeper:   k,
		Ctx:      ctx,
		Store:    stateStore,
		StoreKey: storeKey,
		Clock:    types.NewManualClock(uint64(start.UnixMilli())),
		Stream:   NewFakeStream(),
		Attested: NewFakeAttested(),
	}
}

// Handles returns the fake sources as cycle handles.
func (f *Fixture) Handles() types.SourceHandles {
	return types.SourceHandles{Stream: f.Stream, Attested: f.Attested}
}

// ResetEvents gives the fixture context a fresh event manager.
func (f *Fixture) ResetEvents() {
	f.Ctx = f.Ctx.WithEventManager(sdk.NewEventManager())
}

// Events returns the events emitted since the last reset.
func (f *Fixture) Events() sdk.Events {
	return f.Ctx.EventManager().Events()
}

// Run runs one update cycle for assetID at the fixture clock.
func (f *Fixture) Run(assetID string) (types.CycleResult, error) {
	return f.Keeper.RunUpdateCycle(f.Ctx, f.Clock, f.Handles(), assetID)
}

// DryRun runs the non-committing pipeline for assetID at the fixture clock.
func (f *Fixture) DryRun(assetID string) types.CycleResult {
	return f.Keeper.DryRunValidate(f.Ctx, f.Clock, f.Handles(), assetID)
}

// Feed loads a feed or fails the test.
func (f *Fixture) Feed(t testing.TB, assetID string) types.FeedConfig {
	feed, found := f.Keeper.GetFeed(f.Ctx, assetID)
	require.True(t, found, "feed %s not found", assetID)
	return feed
}

// DefaultFeed returns a dual-source feed config writing into slot SLOT-<asset>.
// Thresholds are 100 and 500 bp, the warning band is tolerated for 60s,
// readings expire after 30s and history after 10 minutes with a 1000 bp span.
func DefaultFeed(assetID string) types.FeedConfig {
	return types.FeedConfig{
		AssetID:                       assetID,
		OracleSlot:                    SlotName(assetID),
		Enabled:                       true,
		OracleDecimals:                OracleDecimals,
		MaxTimestampDiffMs:            30_000,
		PriceDiffThreshold1:           100,
		PriceDiffThreshold2:           500,
		MaxDurationWithinThresholdsMs: 60_000,
		MaximumEffectivePrice:         sdkmath.ZeroUint(),
		MinimumEffectivePrice:         sdkmath.ZeroUint(),
		MaximumAllowedSpanBp:          1_000,
		HistoricalPriceTtlMs:          600_000,
		Primary:                       types.ProviderBinding{Provider: StreamProvider, PairRef: StreamPairRef},
		Secondary:                     types.ProviderBinding{Provider: AttestedProvider, PairRef: AttestedFeedID},
	}
}

// SlotName is the registry slot DefaultFeed uses for assetID.
func SlotName(assetID string) string {
	return "SLOT-" + assetID
}

// SeedProviders registers the stream and attested providers if missing.
func (f *Fixture) SeedProviders(t testing.TB) {
	for _, p := range []types.ProviderConfig{
		{Name: StreamProvider, Kind: types.ProviderKindStream, Enabled: true},
		{Name: AttestedProvider, Kind: types.ProviderKindAttested, Enabled: true},
	} {
		if _, found := f.Keeper.GetProvider(f.Ctx, p.Name); found {
			continue
		}
		require.NoError(t, f.Keeper.RegisterProvider(f.Ctx, Authority, p))
	}
}

// SeedFeed registers providers, the slot and the given feed.
func (f *Fixture) SeedFeed(t testing.TB, feed types.FeedConfig) {
	f.SeedProviders(t)
	require.NoError(t, f.Keeper.RegisterSlot(f.Ctx, Authority, feed.OracleSlot, feed.OracleDecimals))
	require.NoError(t, f.Keeper.CreateFeed(f.Ctx, Authority, feed))
}

// SetPrices publishes a stream quote and an attested price, both in 8
// decimals and observed at the fixture clock.
func (f *Fixture) SetPrices(primary, secondary uint64) {
	now := f.Clock.NowMs()
	f.Stream.Set(7, types.StreamQuote{Value: sdkmath.NewUint(primary), Decimals: 8, TimestampMs: now})
	f.Attested.Set(AttestedFeedID, types.AttestedPrice{
		FeedID:         AttestedFeedID,
		Price:          sdkmath.NewUint(secondary),
		Decimals:       8,
		PublishTimeSec: now / 1000,
	})
}

// FakeStream is an in-memory types.StreamFeed.
type FakeStream struct {
	mu     sync.Mutex
	quotes map[uint32]types.StreamQuote
	errs   map[uint32]error
	calls  int
}

var _ types.StreamFeed = (*FakeStream)(nil)

func NewFakeStream() *FakeStream {
	return &FakeStream{
		quotes: make(map[uint32]types.StreamQuote),
		errs:   make(map[uint32]error),
	}
}

// Set publishes a quote for pairID and clears any injected failure.
func (s *FakeStream) Set(pairID uint32, quote types.StreamQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[pairID] = quote
	delete(s.errs, pairID)
}

// Fail makes every read of pairID return err.
func (s *FakeStream) Fail(pairID uint32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[pairID] = err
}

// Calls returns how many reads were served.
func (s *FakeStream) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *FakeStream) LatestQuote(_ context.Context, pairID uint32) (types.StreamQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.errs[pairID]; err != nil {
		return types.StreamQuote{}, err
	}
	quote, ok := s.quotes[pairID]
	if !ok {
		return types.StreamQuote{}, fmt.Errorf("no quote for pair %d", pairID)
	}
	return quote, nil
}

// FakeAttested is an in-memory types.AttestedPriceReader keyed by lower-case feed id.
type FakeAttested struct {
	mu     sync.Mutex
	prices map[string]types.AttestedPrice
	errs   map[string]error
	calls  int
}

var _ types.AttestedPriceReader = (*FakeAttested)(nil)

func NewFakeAttested() *FakeAttested {
	return &FakeAttested{
		prices: make(map[string]types.AttestedPrice),
		errs:   make(map[string]error),
	}
}

// Set publishes a price object under feedID and clears any injected failure.
func (a *FakeAttested) Set(feedID string, price types.AttestedPrice) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prices[strings.ToLower(feedID)] = price
	delete(a.errs, strings.ToLower(feedID))
}

// Fail makes every read of feedID return err.
func (a *FakeAttested) Fail(feedID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[strings.ToLower(feedID)] = err
}

// Calls returns how many reads were served.
func (a *FakeAttested) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *FakeAttested) PriceObject(_ context.Context, feedID string) (types.AttestedPrice, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	key := strings.ToLower(feedID)
	if err := a.errs[key]; err != nil {
		return types.AttestedPrice{}, err
	}
	price, ok := a.prices[key]
	if !ok {
		return types.AttestedPrice{}, fmt.Errorf("no price object for %s", feedID)
	}
	return price, nil
}
