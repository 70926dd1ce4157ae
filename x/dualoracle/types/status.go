package types

import sdkmath "cosmossdk.io/math"

// StatusCode is the outcome of a validation pipeline run.
type StatusCode uint32

const (
	StatusSuccess StatusCode = iota
	StatusPaused
	StatusFeedNotFound
	StatusNoProvider
	StatusProviderDisabled
	StatusInvalidPriceDiff
	StatusNoAvailablePrice
	StatusInvalidFinalPrice
	StatusFeedDisabled
)

var statusNames = map[StatusCode]string{
	StatusSuccess:           "success",
	StatusPaused:            "paused",
	StatusFeedNotFound:      "feed_not_found",
	StatusNoProvider:        "no_provider",
	StatusProviderDisabled:  "provider_disabled",
	StatusInvalidPriceDiff:  "invalid_price_diff",
	StatusNoAvailablePrice:  "no_available_price",
	StatusInvalidFinalPrice: "invalid_final_price",
	StatusFeedDisabled:      "feed_disabled",
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsSkip reports whether the status is a silent no-op rather than a rejection.
func (s StatusCode) IsSkip() bool {
	switch s {
	case StatusPaused, StatusFeedDisabled, StatusNoProvider, StatusProviderDisabled:
		return true
	default:
		return false
	}
}

// CycleResult summarizes one update cycle or dry run.
type CycleResult struct {
	AssetID   string
	Status    StatusCode
	Price     sdkmath.Uint
	Level     DivergenceLevel
	Amplitude uint64
	// SingleSource is set when only one source was fresh.
	SingleSource bool
	Committed    bool
}
