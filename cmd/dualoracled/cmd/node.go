package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const dbName = "dualoracle"

// node owns the state database and the keeper built on top of it.
type node struct {
	cfg    Config
	logger log.Logger
	db     dbm.DB
	cms    storetypes.CommitMultiStore
	keeper *keeper.Keeper
}

// openNode opens (or creates) the state database under cfg.DataDir.
func openNode(cfg Config, logger log.Logger, opts ...keeper.Option) (*node, error) {
	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := dbm.NewDB(dbName, dbm.BackendType(cfg.DBBackend), cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBBackend, err)
	}
	return newNode(cfg, logger, db, opts...)
}

func newNode(cfg Config, logger log.Logger, db dbm.DB, opts ...keeper.Option) (*node, error) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	return &node{
		cfg:    cfg,
		logger: logger,
		db:     db,
		cms:    cms,
		keeper: keeper.NewKeeper(types.ModuleCdc, storeKey, cfg.AdminAuthority(), opts...),
	}, nil
}

func (n *node) Close() error {
	return n.db.Close()
}

// Version is the last committed state version; zero means the store is empty.
func (n *node) Version() int64 {
	return n.cms.LastCommitID().Version
}

// context builds an sdk.Context for the next version stamped with blockTime.
func (n *node) context(blockTime time.Time) sdk.Context {
	header := cmtproto.Header{Time: blockTime.UTC(), Height: n.Version() + 1}
	return sdk.NewContext(n.cms, header, false, n.logger)
}

func (n *node) commit() storetypes.CommitID {
	return n.cms.Commit()
}

// ensureGenesis loads the genesis file into an empty store.
func (n *node) ensureGenesis() error {
	if n.Version() > 0 {
		return nil
	}
	genesis, err := readGenesisFile(n.cfg.Genesis)
	if err != nil {
		return err
	}
	ctx := n.context(time.Now())
	if err := n.keeper.InitGenesis(ctx, *genesis); err != nil {
		return err
	}
	id := n.commit()
	n.logger.Info("initialized state from genesis", "file", n.cfg.Genesis, "version", id.Version)
	return nil
}

// runRound runs one update cycle per enabled feed, checks invariants and
// commits the round. Feeds are evaluated in parallel, bounded by cfg.Workers.
func (n *node) runRound(ctx context.Context, handles types.SourceHandles) (int, error) {
	sdkCtx := n.context(time.Now()).WithContext(ctx)
	clock := keeper.BlockClock(sdkCtx)

	feeds, err := n.keeper.GetAllFeeds(sdkCtx)
	if err != nil {
		return 0, fmt.Errorf("failed to list feeds: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Workers)
	for _, feed := range feeds {
		if !feed.Enabled {
			continue
		}
		assetID := feed.AssetID
		g.Go(func() error {
			cycleCtx := sdkCtx.WithContext(gctx).WithEventManager(sdk.NewEventManager())
			res, err := n.keeper.RunUpdateCycle(cycleCtx, clock, handles, assetID)
			n.logCycle(res, err, cycleCtx.EventManager().Events())
			if errors.Is(err, types.ErrFeedNotFound) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if msg, broken := keeper.AllInvariants(n.keeper)(sdkCtx); broken {
		return 0, fmt.Errorf("invariant broken: %s", msg)
	}

	id := n.commit()
	n.logger.Debug("round committed", "version", id.Version, "feeds", len(feeds))
	return len(feeds), nil
}

func (n *node) logCycle(res types.CycleResult, err error, events sdk.Events) {
	logger := n.logger.With("asset", res.AssetID, "status", res.Status.String())
	switch {
	case err != nil:
		logger.Warn("cycle rejected", "error", err, "level", res.Level.String(), "amplitude", res.Amplitude)
	case res.Committed:
		logger.Info("price committed", "price", res.Price.String(), "single_source", res.SingleSource)
	default:
		logger.Debug("cycle skipped")
	}

	for _, ev := range events {
		kv := make([]any, 0, 2*len(ev.Attributes)+2)
		kv = append(kv, "type", ev.Type)
		for _, attr := range ev.Attributes {
			kv = append(kv, attr.Key, attr.Value)
		}
		logger.Debug("event", kv...)
	}
}

func readGenesisFile(path string) (*types.GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}
	var genesis types.GenesisState
	if err := json.Unmarshal(bz, &genesis); err != nil {
		return nil, fmt.Errorf("failed to decode genesis file %s: %w", path, err)
	}
	for i := range genesis.Feeds {
		genesis.Feeds[i].Normalize()
	}
	if err := genesis.Validate(); err != nil {
		return nil, err
	}
	return &genesis, nil
}
