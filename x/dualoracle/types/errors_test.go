package types

import (
	"errors"
	"strings"
	"testing"

	sdkerrors "cosmossdk.io/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err  *sdkerrors.Error
		code uint32
	}{
		{ErrFeedNotFound, 2},
		{ErrInvalidThreshold, 6},
		{ErrInvalidBounds, 7},
		{ErrSourceUnavailable, 20},
		{ErrPairMismatch, 21},
		{ErrPriceDivergence, 30},
		{ErrNoAvailablePrice, 31},
		{ErrInvalidFinalPrice, 32},
		{ErrStateCorruption, 40},
	}

	for _, tc := range tests {
		require.Equal(t, ModuleName, tc.err.Codespace())
		require.Equal(t, tc.code, tc.err.ABCICode(), tc.err.Error())
	}
}

func TestWrapWithRecovery(t *testing.T) {
	err := WrapWithRecovery(ErrNoAvailablePrice, "asset %s", "ETH")

	var withRecovery *ErrorWithRecovery
	require.True(t, errors.As(err, &withRecovery))
	require.ErrorIs(t, err, ErrNoAvailablePrice)
	require.True(t, strings.Contains(err.Error(), "asset ETH"))
	require.Equal(t, RecoverySuggestions[ErrNoAvailablePrice], withRecovery.Recovery)
	require.Equal(t, RecoverySuggestions[ErrNoAvailablePrice], GetRecoverySuggestion(err))
}

func TestGetRecoverySuggestionFallback(t *testing.T) {
	require.True(t, strings.HasPrefix(GetRecoverySuggestion(errors.New("boom")), "No recovery suggestion"))
	require.Equal(t, RecoverySuggestions[ErrPairMismatch], GetRecoverySuggestion(ErrPairMismatch.Wrap("x")))
}
