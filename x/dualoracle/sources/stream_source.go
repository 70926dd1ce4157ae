package sources

import (
	"context"
	"strconv"
	"strings"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// StreamSource reads a streaming feed keyed by a numeric pair id. Stream
// values may legitimately be zero, so they are scaled with RescaleSafe.
type StreamSource struct {
	feed types.StreamFeed
}

var _ types.SourceAdapter = StreamSource{}

func NewStreamSource(feed types.StreamFeed) StreamSource {
	return StreamSource{feed: feed}
}

func (StreamSource) Kind() types.ProviderKind { return types.ProviderKindStream }

// Fetch returns the latest quote for pairRef scaled to targetDecimals.
func (s StreamSource) Fetch(ctx context.Context, pairRef string, targetDecimals uint32) (types.Reading, error) {
	pairID, err := ParsePairID(pairRef)
	if err != nil {
		return types.Reading{}, err
	}

	quote, err := s.feed.LatestQuote(ctx, pairID)
	if err != nil {
		return types.Reading{}, types.ErrSourceUnavailable.Wrapf("stream pair %d: %s", pairID, err)
	}
	if quote.Decimals == 0 {
		return types.Reading{}, types.ErrInvalidDecimals.Wrapf("stream pair %d reports zero decimals", pairID)
	}

	price, err := types.RescaleSafe(quote.Value, quote.Decimals, targetDecimals)
	if err != nil {
		return types.Reading{}, err
	}
	return types.Reading{
		Price:        price,
		Decimals:     targetDecimals,
		ObservedAtMs: quote.TimestampMs,
	}, nil
}

// ParsePairID parses the numeric pair reference of a stream binding.
func ParsePairID(pairRef string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(pairRef), 10, 32)
	if err != nil {
		return 0, types.ErrPairMismatch.Wrapf("stream pair ref %q is not a numeric id", pairRef)
	}
	return uint32(id), nil
}
