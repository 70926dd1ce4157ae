package types

import (
	"encoding/json"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// ProviderKind tags the two supported provider shapes.
type ProviderKind uint32

const (
	ProviderKindUnspecified ProviderKind = iota
	// ProviderKindStream reads a streaming feed keyed by a numeric pair id.
	ProviderKindStream
	// ProviderKindAttested reads an attested price object keyed by a feed id.
	ProviderKindAttested
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderKindStream:
		return "stream"
	case ProviderKindAttested:
		return "attested"
	default:
		return "unspecified"
	}
}

// ParseProviderKind parses the textual form used in genesis files.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream":
		return ProviderKindStream, nil
	case "attested":
		return ProviderKindAttested, nil
	default:
		return ProviderKindUnspecified, ErrInvalidProvider.Wrapf("unknown provider kind %q", s)
	}
}

// MarshalJSON renders the kind by name in genesis files.
func (k ProviderKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts the kind by name.
func (k *ProviderKind) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	kind, err := ParseProviderKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ProviderConfig is a registered upstream price provider.
type ProviderConfig struct {
	Name    string       `json:"name"`
	Kind    ProviderKind `json:"kind"`
	Enabled bool         `json:"enabled"`
}

// ValidateBasic checks the provider registration fields.
func (p ProviderConfig) ValidateBasic() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProvider.Wrap("provider name cannot be empty")
	}
	if p.Kind != ProviderKindStream && p.Kind != ProviderKindAttested {
		return ErrInvalidProvider.Wrapf("provider %s has unsupported kind %d", p.Name, p.Kind)
	}
	return nil
}

// ProviderBinding binds a feed to a provider and the provider-specific pair
// reference (numeric pair id for stream providers, feed id for attested ones).
type ProviderBinding struct {
	Provider string `json:"provider"`
	PairRef  string `json:"pair_ref"`
}

// IsEmpty reports whether no provider is bound.
func (b ProviderBinding) IsEmpty() bool {
	return b.Provider == ""
}

// HistoricalPrice is the last committed price of a feed.
type HistoricalPrice struct {
	Price       sdkmath.Uint `json:"price"`
	UpdatedAtMs uint64       `json:"updated_at_ms"`
}

// FeedConfig is the persistent per-asset record. It is only mutated by the
// update cycle (timer, history) and by admin setters.
type FeedConfig struct {
	AssetID    string `json:"asset_id"`
	OracleSlot string `json:"oracle_slot"`
	Enabled    bool   `json:"enabled"`

	// OracleDecimals is the decimal count every reading is normalized to.
	OracleDecimals uint32 `json:"oracle_decimals"`

	MaxTimestampDiffMs uint64 `json:"max_timestamp_diff_ms"`

	// Divergence thresholds in basis points, threshold1 <= threshold2.
	PriceDiffThreshold1           uint64 `json:"price_diff_threshold1"`
	PriceDiffThreshold2           uint64 `json:"price_diff_threshold2"`
	MaxDurationWithinThresholdsMs uint64 `json:"max_duration_within_thresholds_ms"`
	DivergenceTimerStartMs        uint64 `json:"divergence_timer_start_ms"`

	// Zero maximum means unbounded above.
	MaximumEffectivePrice sdkmath.Uint `json:"maximum_effective_price"`
	MinimumEffectivePrice sdkmath.Uint `json:"minimum_effective_price"`
	MaximumAllowedSpanBp  uint64       `json:"maximum_allowed_span_bp"`
	HistoricalPriceTtlMs  uint64       `json:"historical_price_ttl_ms"`

	Primary   ProviderBinding `json:"primary"`
	Secondary ProviderBinding `json:"secondary"`

	History         HistoricalPrice `json:"history"`
	LastEvaluatedMs uint64          `json:"last_evaluated_ms"`
}

// HasSecondary reports whether a distinct secondary provider is bound.
func (f FeedConfig) HasSecondary() bool {
	return !f.Secondary.IsEmpty() && f.Secondary.Provider != f.Primary.Provider
}

// Normalize replaces nil Uint fields with zero so the record can be encoded.
func (f *FeedConfig) Normalize() {
	if f.MaximumEffectivePrice.IsNil() {
		f.MaximumEffectivePrice = sdkmath.ZeroUint()
	}
	if f.MinimumEffectivePrice.IsNil() {
		f.MinimumEffectivePrice = sdkmath.ZeroUint()
	}
	if f.History.Price.IsNil() {
		f.History.Price = sdkmath.ZeroUint()
	}
}

// ValidateBasic checks every cross-field invariant of the record.
func (f FeedConfig) ValidateBasic() error {
	if strings.TrimSpace(f.AssetID) == "" {
		return ErrInvalidFeedConfig.Wrap("asset id cannot be empty")
	}
	if strings.TrimSpace(f.OracleSlot) == "" {
		return ErrInvalidFeedConfig.Wrapf("feed %s has no oracle slot", f.AssetID)
	}
	if f.OracleDecimals == 0 {
		return ErrInvalidDecimals.Wrapf("feed %s oracle decimals must be positive", f.AssetID)
	}
	if err := ValidateThresholds(f.PriceDiffThreshold1, f.PriceDiffThreshold2); err != nil {
		return err
	}
	if err := ValidateBounds(f.MinimumEffectivePrice, f.MaximumEffectivePrice); err != nil {
		return err
	}
	if f.Primary.IsEmpty() && !f.Secondary.IsEmpty() {
		return ErrInvalidProvider.Wrapf("feed %s binds a secondary without a primary", f.AssetID)
	}
	if f.DivergenceTimerStartMs != 0 && f.LastEvaluatedMs != 0 && f.DivergenceTimerStartMs > f.LastEvaluatedMs {
		return ErrInvalidFeedConfig.Wrapf("feed %s timer starts after its last evaluation", f.AssetID)
	}
	return nil
}

// ValidateThresholds enforces threshold1 <= threshold2.
func ValidateThresholds(threshold1, threshold2 uint64) error {
	if threshold1 > threshold2 {
		return ErrInvalidThreshold.Wrapf("threshold1 %d exceeds threshold2 %d", threshold1, threshold2)
	}
	return nil
}

// ValidateBounds enforces minimum <= maximum when maximum is set.
func ValidateBounds(minimum, maximum sdkmath.Uint) error {
	if minimum.IsNil() || maximum.IsNil() {
		return nil
	}
	if !maximum.IsZero() && minimum.GT(maximum) {
		return ErrInvalidBounds.Wrapf("minimum %s exceeds maximum %s", minimum, maximum)
	}
	return nil
}

// OracleSlot is a downstream price-registry record.
type OracleSlot struct {
	Name        string       `json:"name"`
	Decimals    uint32       `json:"decimals"`
	Price       sdkmath.Uint `json:"price"`
	UpdatedAtMs uint64       `json:"updated_at_ms"`
}

// ValidateBasic checks the slot registration fields.
func (s OracleSlot) ValidateBasic() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("slot name cannot be empty")
	}
	if s.Decimals == 0 {
		return ErrInvalidDecimals.Wrapf("slot %s decimals must be positive", s.Name)
	}
	return nil
}
