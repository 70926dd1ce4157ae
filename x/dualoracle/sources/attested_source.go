package sources

import (
	"context"
	"math"
	"strings"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// maxPublishTimeSec is the largest publish time that converts to milliseconds
// without wrapping.
const maxPublishTimeSec = math.MaxUint64 / 1000

// AttestedSource reads attested price objects. The embedded feed id must match
// the binding, and values are scaled with RescalePrecise.
type AttestedSource struct {
	reader types.AttestedPriceReader
}

var _ types.SourceAdapter = AttestedSource{}

func NewAttestedSource(reader types.AttestedPriceReader) AttestedSource {
	return AttestedSource{reader: reader}
}

func (AttestedSource) Kind() types.ProviderKind { return types.ProviderKindAttested }

// Fetch returns the attested price for pairRef scaled to targetDecimals.
func (s AttestedSource) Fetch(ctx context.Context, pairRef string, targetDecimals uint32) (types.Reading, error) {
	obj, err := s.reader.PriceObject(ctx, pairRef)
	if err != nil {
		return types.Reading{}, types.ErrSourceUnavailable.Wrapf("attested feed %s: %s", pairRef, err)
	}
	if !SameFeedID(obj.FeedID, pairRef) {
		return types.Reading{}, types.ErrPairMismatch.Wrapf("configured %s, object carries %s", pairRef, obj.FeedID)
	}
	if obj.Decimals == 0 {
		return types.Reading{}, types.ErrInvalidDecimals.Wrapf("attested feed %s reports zero decimals", pairRef)
	}

	if obj.PublishTimeSec > maxPublishTimeSec {
		return types.Reading{}, types.ErrSourceUnavailable.Wrapf("attested feed %s publish time %d out of range", pairRef, obj.PublishTimeSec)
	}

	price, err := types.RescalePrecise(obj.Price, obj.Decimals, targetDecimals)
	if err != nil {
		return types.Reading{}, err
	}
	return types.Reading{
		Price:        price,
		Decimals:     targetDecimals,
		ObservedAtMs: obj.PublishTimeSec * 1000,
	}, nil
}

// SameFeedID compares hex feed ids ignoring case and an optional 0x prefix.
func SameFeedID(a, b string) bool {
	return normalizeFeedID(a) == normalizeFeedID(b) && normalizeFeedID(a) != ""
}

func normalizeFeedID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "0x")
}
