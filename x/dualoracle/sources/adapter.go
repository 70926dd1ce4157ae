// Package sources turns external price providers into normalized readings.
package sources

import (
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// NewAdapter returns the adapter for a provider kind, bound to the matching
// handle. A missing handle makes the provider unavailable.
func NewAdapter(kind types.ProviderKind, handles types.SourceHandles) (types.SourceAdapter, error) {
	switch kind {
	case types.ProviderKindStream:
		if handles.Stream == nil {
			return nil, types.ErrSourceUnavailable.Wrap("no stream feed handle")
		}
		return NewStreamSource(handles.Stream), nil
	case types.ProviderKindAttested:
		if handles.Attested == nil {
			return nil, types.ErrSourceUnavailable.Wrap("no attested price handle")
		}
		return NewAttestedSource(handles.Attested), nil
	default:
		return nil, types.ErrInvalidProvider.Wrapf("unsupported provider kind %s", kind)
	}
}
