package types

import sdkmath "cosmossdk.io/math"

// RangeInput holds the candidate price and the bounds it is checked against.
type RangeInput struct {
	Price          sdkmath.Uint
	MaxPrice       sdkmath.Uint
	MinPrice       sdkmath.Uint
	MaxSpanBp      uint64
	NowMs          uint64
	HistoryTtlMs   uint64
	HistoryPrice   sdkmath.Uint
	HistoryUpdated uint64
}

// RangeInputForFeed builds the range input for a candidate against a feed.
func RangeInputForFeed(feed FeedConfig, price sdkmath.Uint, nowMs uint64) RangeInput {
	return RangeInput{
		Price:          price,
		MaxPrice:       feed.MaximumEffectivePrice,
		MinPrice:       feed.MinimumEffectivePrice,
		MaxSpanBp:      feed.MaximumAllowedSpanBp,
		NowMs:          nowMs,
		HistoryTtlMs:   feed.HistoricalPriceTtlMs,
		HistoryPrice:   feed.History.Price,
		HistoryUpdated: feed.History.UpdatedAtMs,
	}
}

// RangeResult reports whether the candidate passed, and why not.
type RangeResult struct {
	Valid  bool
	Reason string
	// Span is the deviation from history in basis points; zero when the
	// history check was skipped.
	Span          uint64
	HistoryActive bool
}

const (
	RangeReasonAboveMaximum = "above_maximum"
	RangeReasonBelowMinimum = "below_minimum"
	RangeReasonSpanExceeded = "span_exceeded"
)

// ValidateRange gates a candidate price against absolute bounds and, while the
// history is fresh, against its relative span from the historical price.
// Stale or absent history skips the span check.
func ValidateRange(in RangeInput) RangeResult {
	price := orZero(in.Price)
	maxPrice := orZero(in.MaxPrice)
	minPrice := orZero(in.MinPrice)
	history := orZero(in.HistoryPrice)

	if !maxPrice.IsZero() && price.GT(maxPrice) {
		return RangeResult{Reason: RangeReasonAboveMaximum}
	}
	if !minPrice.IsZero() && price.LT(minPrice) {
		return RangeResult{Reason: RangeReasonBelowMinimum}
	}

	if history.IsZero() || ElapsedMs(in.NowMs, in.HistoryUpdated) > in.HistoryTtlMs {
		return RangeResult{Valid: true}
	}

	span := RelativeDeviation(history, price)
	if span > in.MaxSpanBp {
		return RangeResult{Reason: RangeReasonSpanExceeded, Span: span, HistoryActive: true}
	}
	return RangeResult{Valid: true, Span: span, HistoryActive: true}
}

func orZero(u sdkmath.Uint) sdkmath.Uint {
	if u.IsNil() {
		return sdkmath.ZeroUint()
	}
	return u
}
