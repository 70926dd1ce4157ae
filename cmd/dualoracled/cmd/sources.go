package cmd

import (
	"sort"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/sources"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// sourceSet holds the external price transports the daemon talks to.
type sourceSet struct {
	stream   *sources.StreamClient
	attested *sources.AttestedClient
}

// Handles exposes the configured transports to the update cycle. Transports
// that are not configured stay nil, which makes their providers unavailable.
func (s sourceSet) Handles() types.SourceHandles {
	var handles types.SourceHandles
	if s.stream != nil {
		handles.Stream = s.stream
	}
	if s.attested != nil {
		handles.Attested = s.attested
	}
	return handles
}

func buildSources(cfg Config, pairs []uint32, logger log.Logger) (sourceSet, error) {
	var set sourceSet
	if cfg.Stream.URL != "" {
		client, err := sources.NewStreamClient(cfg.Stream.URL, pairs, cfg.Stream.CacheSize, logger)
		if err != nil {
			return sourceSet{}, err
		}
		set.stream = client
	}
	if cfg.Attested.URL != "" {
		set.attested = sources.NewAttestedClient(
			cfg.Attested.URL,
			cfg.Attested.RequestsPerSecond,
			cfg.Attested.Burst,
			cfg.Attested.Timeout,
		)
	}
	return set, nil
}

// streamPairs collects the pair ids of every feed binding that points at a
// stream provider.
func streamPairs(ctx sdk.Context, k *keeper.Keeper) ([]uint32, error) {
	providers, err := k.GetAllProviders(ctx)
	if err != nil {
		return nil, err
	}
	streamProviders := make(map[string]bool, len(providers))
	for _, p := range providers {
		streamProviders[p.Name] = p.Kind == types.ProviderKindStream
	}

	feeds, err := k.GetAllFeeds(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint32]struct{})
	for _, feed := range feeds {
		for _, binding := range []types.ProviderBinding{feed.Primary, feed.Secondary} {
			if binding.IsEmpty() || !streamProviders[binding.Provider] {
				continue
			}
			id, err := sources.ParsePairID(binding.PairRef)
			if err != nil {
				return nil, err
			}
			seen[id] = struct{}{}
		}
	}

	pairs := make([]uint32, 0, len(seen))
	for id := range seen {
		pairs = append(pairs, id)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i] < pairs[j] })
	return pairs, nil
}
