package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const ethFeedID = "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Home:         t.TempDir(),
		DBBackend:    "memdb",
		Genesis:      filepath.Join("testdata", "genesis.json"),
		Authority:    keepertest.Authority,
		PollInterval: time.Second,
		Workers:      2,
		Log:          LogConfig{Level: "info", Format: "json"},
	}
}

func openTestNode(t *testing.T) *node {
	t.Helper()
	n, err := openNode(testConfig(t), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	require.NoError(t, n.ensureGenesis())
	return n
}

type testSources struct {
	stream   *keepertest.FakeStream
	attested *keepertest.FakeAttested
}

func newTestSources() testSources {
	return testSources{stream: keepertest.NewFakeStream(), attested: keepertest.NewFakeAttested()}
}

func (s testSources) handles() types.SourceHandles {
	return types.SourceHandles{Stream: s.stream, Attested: s.attested}
}

func (s testSources) publish(eth, ethAttested, btc uint64) {
	now := uint64(time.Now().UnixMilli())
	s.stream.Set(7, types.StreamQuote{Value: sdkmath.NewUint(eth), Decimals: 8, TimestampMs: now})
	s.stream.Set(1, types.StreamQuote{Value: sdkmath.NewUint(btc), Decimals: 8, TimestampMs: now})
	s.attested.Set(ethFeedID, types.AttestedPrice{
		FeedID:         ethFeedID,
		Price:          sdkmath.NewUint(ethAttested),
		Decimals:       8,
		PublishTimeSec: now / 1000,
	})
}

func TestEnsureGenesis(t *testing.T) {
	n := openTestNode(t)
	require.Equal(t, int64(1), n.Version())

	require.NoError(t, n.ensureGenesis())
	require.Equal(t, int64(1), n.Version(), "genesis is only loaded into an empty store")

	feeds, err := n.keeper.GetAllFeeds(n.context(time.Now()))
	require.NoError(t, err)
	require.Len(t, feeds, 2)
}

func TestEnsureGenesisMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Genesis = filepath.Join(cfg.Home, "missing.json")
	n, err := openNode(cfg, log.NewNopLogger())
	require.NoError(t, err)
	defer n.Close()
	require.Error(t, n.ensureGenesis())
}

func TestRunRoundCommitsPrices(t *testing.T) {
	n := openTestNode(t)
	src := newTestSources()
	src.publish(300_000_000_000, 300_100_000_000, 6_500_000_000_000)

	feeds, err := n.runRound(context.Background(), src.handles())
	require.NoError(t, err)
	require.Equal(t, 2, feeds)
	require.Equal(t, int64(2), n.Version())

	ctx := n.context(time.Now())
	eth, found := n.keeper.GetFeed(ctx, "ETH")
	require.True(t, found)
	require.Equal(t, "300000000000", eth.History.Price.String())

	btc, found := n.keeper.GetFeed(ctx, "BTC")
	require.True(t, found)
	require.Equal(t, "6500000000000", btc.History.Price.String())

	slot, found := n.keeper.GetSlot(ctx, "SLOT-BTC")
	require.True(t, found)
	require.Equal(t, "6500000000000", slot.Price.String())
}

func TestRunRoundKeepsGoingOnRejection(t *testing.T) {
	n := openTestNode(t)
	src := newTestSources()
	// ETH sources are 10% apart, which is severe; BTC still commits.
	src.publish(300_000_000_000, 330_000_000_000, 6_500_000_000_000)

	_, err := n.runRound(context.Background(), src.handles())
	require.NoError(t, err)

	ctx := n.context(time.Now())
	eth, _ := n.keeper.GetFeed(ctx, "ETH")
	require.True(t, eth.History.Price.IsZero())
	btc, _ := n.keeper.GetFeed(ctx, "BTC")
	require.False(t, btc.History.Price.IsZero())
}

func TestRunRoundWhilePaused(t *testing.T) {
	n := openTestNode(t)
	require.NoError(t, n.keeper.Pause(n.context(time.Now()), keepertest.Authority, "maintenance"))
	n.commit()

	src := newTestSources()
	src.publish(300_000_000_000, 300_000_000_000, 6_500_000_000_000)
	_, err := n.runRound(context.Background(), src.handles())
	require.NoError(t, err)
	require.Zero(t, src.stream.Calls())

	eth, _ := n.keeper.GetFeed(n.context(time.Now()), "ETH")
	require.True(t, eth.History.Price.IsZero())
}

func TestStreamPairs(t *testing.T) {
	n := openTestNode(t)
	pairs, err := streamPairs(n.context(time.Now()), n.keeper)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 7}, pairs)
}

func TestBuildSources(t *testing.T) {
	cfg := testConfig(t)
	set, err := buildSources(cfg, nil, log.NewNopLogger())
	require.NoError(t, err)
	handles := set.Handles()
	require.Nil(t, handles.Stream)
	require.Nil(t, handles.Attested)

	cfg.Stream.URL = "ws://127.0.0.1:1/prices"
	cfg.Attested.URL = "http://127.0.0.1:1"
	cfg.Attested.Timeout = time.Second
	set, err = buildSources(cfg, []uint32{7}, log.NewNopLogger())
	require.NoError(t, err)
	handles = set.Handles()
	require.NotNil(t, handles.Stream)
	require.NotNil(t, handles.Attested)
}

func TestReadGenesisFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	body := `{"params": {"persist_timer_on_reject": true}, "providers": [], "slots": [],
	  "feeds": [{"asset_id": "ETH", "oracle_slot": "SLOT-ETH", "oracle_decimals": 8,
	    "price_diff_threshold1": 1, "price_diff_threshold2": 2, "primary": {"provider": "", "pair_ref": ""}}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := readGenesisFile(path)
	require.ErrorIs(t, err, types.ErrSlotNotFound)
}
