package keeper_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dualoracle/testutil/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

func TestCycleMetrics(t *testing.T) {
	m := keeper.NewMetrics()
	require.Same(t, m, keeper.NewMetrics())

	f := keepertest.NewFixture(t, keeper.WithMetrics(m))
	const metricAsset = "METRICS"
	f.SeedFeed(t, keepertest.DefaultFeed(metricAsset))
	f.SetPrices(10_000, 10_300)

	_, err := f.Run(metricAsset)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Cycles.WithLabelValues(metricAsset, types.StatusSuccess.String())))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DivergenceLevels.WithLabelValues(metricAsset, "warning")))
	require.Equal(t, 300.0, testutil.ToFloat64(m.Amplitude.WithLabelValues(metricAsset)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ActiveTimers.WithLabelValues(metricAsset)))
	require.Equal(t, 10_000.0, testutil.ToFloat64(m.CommittedPrice.WithLabelValues(metricAsset)))

	f.Clock.Advance(120_000)
	_, err = f.Run(metricAsset)
	require.ErrorIs(t, err, types.ErrNoAvailablePrice)
	require.Equal(t, 1.0, testutil.ToFloat64(m.SourceUnavailable.WithLabelValues(metricAsset, types.SourceSecondary)))
}

func TestUnknownFeedMetricsShareOneSeries(t *testing.T) {
	m := keeper.NewMetrics()
	f := keepertest.NewFixture(t, keeper.WithMetrics(m))
	notFound := m.Cycles.WithLabelValues("unknown", types.StatusFeedNotFound.String())
	before := testutil.ToFloat64(notFound)

	_, err := f.Run("NOPE-1")
	require.ErrorIs(t, err, types.ErrFeedNotFound)
	series := testutil.CollectAndCount(m.Cycles)

	_, err = f.Run("NOPE-2")
	require.ErrorIs(t, err, types.ErrFeedNotFound)
	require.Equal(t, series, testutil.CollectAndCount(m.Cycles))
	require.Equal(t, before+2, testutil.ToFloat64(notFound))
}
