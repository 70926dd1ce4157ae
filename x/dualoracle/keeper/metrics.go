package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dual oracle engine
type Metrics struct {
	// Cycle metrics
	Cycles       *prometheus.CounterVec
	CycleLatency prometheus.Histogram

	// Divergence metrics
	DivergenceLevels *prometheus.CounterVec
	Amplitude        *prometheus.GaugeVec
	ActiveTimers     *prometheus.GaugeVec

	// Source metrics
	SourceUnavailable *prometheus.CounterVec
	SingleSource      *prometheus.CounterVec

	// Commit metrics
	CommittedPrice *prometheus.GaugeVec
	RangeRejects   *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics creates and registers the engine metrics (singleton pattern)
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			Cycles: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "cycles_total",
					Help:      "Update cycles by asset and outcome",
				},
				[]string{"asset", "status"},
			),
			CycleLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "cycle_duration_seconds",
					Help:      "Wall time of one update cycle including source fetches",
					Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
				},
			),
			DivergenceLevels: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "divergence_total",
					Help:      "Divergence classifications by level",
				},
				[]string{"asset", "level"},
			),
			Amplitude: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "divergence_amplitude_bp",
					Help:      "Last divergence amplitude between sources in basis points",
				},
				[]string{"asset"},
			),
			ActiveTimers: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "divergence_timer_active",
					Help:      "1 while a divergence timer is running for the asset",
				},
				[]string{"asset"},
			),
			SourceUnavailable: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "source_unavailable_total",
					Help:      "Cycles where a source had no fresh reading",
				},
				[]string{"asset", "which"},
			),
			SingleSource: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "single_source_total",
					Help:      "Cycles that fell back to a single source",
				},
				[]string{"asset"},
			),
			CommittedPrice: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "committed_price",
					Help:      "Last committed price in oracle decimals",
				},
				[]string{"asset"},
			),
			RangeRejects: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "dualoracle",
					Name:      "range_rejections_total",
					Help:      "Candidates rejected by the range and history check",
				},
				[]string{"asset", "reason"},
			),
		}
	})
	return metrics
}
