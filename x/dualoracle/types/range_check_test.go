package types

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func spanInput(price uint64) RangeInput {
	return RangeInput{
		Price:          sdkmath.NewUint(price),
		MaxPrice:       sdkmath.ZeroUint(),
		MinPrice:       sdkmath.ZeroUint(),
		MaxSpanBp:      1_000,
		NowMs:          10_000,
		HistoryTtlMs:   5_000,
		HistoryPrice:   sdkmath.NewUint(1_000),
		HistoryUpdated: 9_000,
	}
}

func TestValidateRangeHistorySpan(t *testing.T) {
	tests := []struct {
		price uint64
		valid bool
		span  uint64
	}{
		{1_099, true, 990},
		{1_100, true, 1_000},
		{1_101, false, 1_010},
		{900, true, 1_000},
		{899, false, 1_010},
		{1_000, true, 0},
	}

	for _, tc := range tests {
		res := ValidateRange(spanInput(tc.price))
		require.Equal(t, tc.valid, res.Valid, "price %d", tc.price)
		require.Equal(t, tc.span, res.Span, "price %d", tc.price)
		require.True(t, res.HistoryActive)
		if !tc.valid {
			require.Equal(t, RangeReasonSpanExceeded, res.Reason)
		}
	}
}

func TestValidateRangeSkipsInactiveHistory(t *testing.T) {
	t.Run("stale history", func(t *testing.T) {
		in := spanInput(5_000)
		in.NowMs = in.HistoryUpdated + in.HistoryTtlMs + 1
		res := ValidateRange(in)
		require.True(t, res.Valid)
		require.False(t, res.HistoryActive)
	})

	t.Run("history exactly at ttl is still active", func(t *testing.T) {
		in := spanInput(5_000)
		in.NowMs = in.HistoryUpdated + in.HistoryTtlMs
		require.False(t, ValidateRange(in).Valid)
	})

	t.Run("no history", func(t *testing.T) {
		in := spanInput(5_000)
		in.HistoryPrice = sdkmath.ZeroUint()
		require.True(t, ValidateRange(in).Valid)
	})

	t.Run("history dated in the future counts as fresh", func(t *testing.T) {
		in := spanInput(5_000)
		in.HistoryUpdated = in.NowMs + 1_000
		require.False(t, ValidateRange(in).Valid)
	})
}

func TestValidateRangeBounds(t *testing.T) {
	in := RangeInput{
		MaxPrice: sdkmath.NewUint(150),
		MinPrice: sdkmath.NewUint(50),
	}

	for price, reason := range map[uint64]string{
		49:  RangeReasonBelowMinimum,
		50:  "",
		150: "",
		151: RangeReasonAboveMaximum,
	} {
		in.Price = sdkmath.NewUint(price)
		res := ValidateRange(in)
		require.Equal(t, reason == "", res.Valid, "price %d", price)
		require.Equal(t, reason, res.Reason, "price %d", price)
	}

	t.Run("zero maximum is unbounded", func(t *testing.T) {
		res := ValidateRange(RangeInput{Price: sdkmath.NewUint(1_000_000_000), MinPrice: sdkmath.NewUint(1)})
		require.True(t, res.Valid)
	})

	t.Run("zero candidate fails span against history", func(t *testing.T) {
		res := ValidateRange(spanInput(0))
		require.False(t, res.Valid)
		require.Equal(t, uint64(10_000), res.Span)
	})
}

func TestFreshness(t *testing.T) {
	require.True(t, IsFresh(1_000, 900, 100))
	require.False(t, IsFresh(1_000, 899, 100))
	require.True(t, IsFresh(1_000, 1_000, 0))
	require.True(t, IsFresh(1_000, 5_000, 0), "future readings are fresh")

	require.Equal(t, uint64(0), ElapsedMs(10, 20))
	require.Equal(t, uint64(10), ElapsedMs(20, 10))
}
