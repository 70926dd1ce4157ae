package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// dualoracle module sentinel errors
var (
	// Configuration errors
	ErrFeedNotFound      = sdkerrors.Register(ModuleName, 2, "feed not found")
	ErrFeedExists        = sdkerrors.Register(ModuleName, 3, "feed already exists")
	ErrProviderNotFound  = sdkerrors.Register(ModuleName, 4, "provider not found")
	ErrProviderExists    = sdkerrors.Register(ModuleName, 5, "provider already registered")
	ErrInvalidThreshold  = sdkerrors.Register(ModuleName, 6, "invalid divergence thresholds")
	ErrInvalidBounds     = sdkerrors.Register(ModuleName, 7, "invalid price bounds")
	ErrInvalidDecimals   = sdkerrors.Register(ModuleName, 8, "invalid decimals")
	ErrInvalidFeedConfig = sdkerrors.Register(ModuleName, 9, "invalid feed config")
	ErrSlotNotFound      = sdkerrors.Register(ModuleName, 10, "oracle slot not found")
	ErrInvalidProvider   = sdkerrors.Register(ModuleName, 11, "invalid provider binding")
	ErrUnauthorized      = sdkerrors.Register(ModuleName, 12, "unauthorized admin operation")
	ErrAlreadyPaused     = sdkerrors.Register(ModuleName, 13, "engine already paused")
	ErrNotPaused         = sdkerrors.Register(ModuleName, 14, "engine not paused")
	ErrInvalidGenesis    = sdkerrors.Register(ModuleName, 15, "invalid genesis state")

	// Transient source errors
	ErrSourceUnavailable = sdkerrors.Register(ModuleName, 20, "price source unavailable")
	ErrPairMismatch      = sdkerrors.Register(ModuleName, 21, "pair identifier does not match")
	ErrPriceOverflow     = sdkerrors.Register(ModuleName, 22, "price exceeds 256 bits")

	// Cycle rejections
	ErrPriceDivergence   = sdkerrors.Register(ModuleName, 30, "sources diverge beyond tolerance")
	ErrNoAvailablePrice  = sdkerrors.Register(ModuleName, 31, "no fresh price available")
	ErrInvalidFinalPrice = sdkerrors.Register(ModuleName, 32, "final price failed range validation")

	// State errors
	ErrStateCorruption = sdkerrors.Register(ModuleName, 40, "state corruption detected")
)

// ErrorWithRecovery wraps an error with recovery suggestions
type ErrorWithRecovery struct {
	Err      error
	Recovery string
}

func (e *ErrorWithRecovery) Error() string {
	return e.Err.Error()
}

func (e *ErrorWithRecovery) Unwrap() error {
	return e.Err
}

// RecoverySuggestions provides operator-facing next steps for each error type
var RecoverySuggestions = map[error]string{
	ErrFeedNotFound:      "No feed is registered for this asset id. Create it with the admin CreateFeed operation or check the genesis file.",
	ErrFeedExists:        "A feed already exists for this asset id. Feeds are never deleted; use the setters to change it.",
	ErrProviderNotFound:  "Binding references an unregistered provider. Register the provider first, then bind it to the feed.",
	ErrInvalidThreshold:  "Divergence thresholds must satisfy threshold1 <= threshold2 (basis points).",
	ErrInvalidBounds:     "Minimum effective price must not exceed a non-zero maximum effective price.",
	ErrInvalidDecimals:   "Decimals must be non-zero on both the oracle slot and every source reading.",
	ErrUnauthorized:      "Admin operations must be signed by the configured authority.",
	ErrSourceUnavailable: "Provider returned no data. Check the provider transport (websocket / HTTP) and the pair reference.",
	ErrPairMismatch:      "The attested object carries a different feed id than the one bound to this feed. Fix the binding's pair reference.",
	ErrPriceDivergence:   "Primary and secondary disagree beyond threshold2, or stayed in the warning band too long. Inspect both providers before resuming.",
	ErrNoAvailablePrice:  "Neither source produced a reading inside the freshness window. Check provider liveness and maxTimestampDiffMs.",
	ErrInvalidFinalPrice: "Candidate price is outside the absolute bounds or too far from the historical price. Verify market conditions, then widen bounds if legitimate.",
	ErrStateCorruption:   "CRITICAL: stored feed state violates its invariants. Halt the daemon and restore from a known-good snapshot.",
}

// WrapWithRecovery wraps an error with recovery suggestion
func WrapWithRecovery(err error, msg string, args ...interface{}) error {
	wrapped := sdkerrors.Wrapf(err, msg, args...)

	if suggestion, ok := RecoverySuggestions[err]; ok {
		return &ErrorWithRecovery{
			Err:      wrapped,
			Recovery: suggestion,
		}
	}

	return wrapped
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	for _, target := range recoveryOrder {
		if errors.Is(err, target) {
			return RecoverySuggestions[target]
		}
	}
	return "No recovery suggestion available. Check the error message and the feed configuration."
}

var recoveryOrder = []error{
	ErrFeedNotFound, ErrFeedExists, ErrProviderNotFound, ErrInvalidThreshold, ErrInvalidBounds,
	ErrInvalidDecimals, ErrUnauthorized, ErrSourceUnavailable, ErrPairMismatch, ErrPriceDivergence,
	ErrNoAvailablePrice, ErrInvalidFinalPrice, ErrStateCorruption,
}
