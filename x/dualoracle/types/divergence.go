package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// DivergenceLevel classifies how far the two sources disagree.
type DivergenceLevel int

const (
	DivergenceNormal DivergenceLevel = iota
	DivergenceWarning
	DivergenceSevere
)

func (l DivergenceLevel) String() string {
	switch l {
	case DivergenceNormal:
		return "normal"
	case DivergenceWarning:
		return "warning"
	case DivergenceSevere:
		return "severe"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// DivergenceInput holds everything the classifier needs for one comparison.
type DivergenceInput struct {
	PrimaryPrice   sdkmath.Uint
	SecondaryPrice sdkmath.Uint
	Threshold1     uint64
	Threshold2     uint64
	NowMs          uint64
	MaxDurationMs  uint64
	TimerStartMs   uint64
}

// DivergenceResult is the classification plus the timer value to persist.
type DivergenceResult struct {
	Level        DivergenceLevel
	Amplitude    uint64
	TimerStartMs uint64

	// TimerStarted is set when this call opened a divergence episode.
	TimerStarted bool
	// TimerReset is set when this call closed a running episode.
	TimerReset bool
	// Escalated is set when a warning was promoted to severe by duration.
	Escalated bool
}

// ClassifyDivergence compares two fresh readings.
//
//	amplitude <  threshold1               -> normal, timer reset to 0
//	threshold1 <= amplitude < threshold2  -> warning, timer started if idle,
//	                                         severe once it ran maxDuration
//	amplitude >= threshold2               -> severe, timer untouched
func ClassifyDivergence(in DivergenceInput) DivergenceResult {
	amplitude := Amplitude(in.PrimaryPrice, in.SecondaryPrice)
	res := DivergenceResult{Amplitude: amplitude, TimerStartMs: in.TimerStartMs}

	switch {
	case amplitude < in.Threshold1:
		res.Level = DivergenceNormal
		res.TimerReset = in.TimerStartMs != 0
		res.TimerStartMs = 0
	case amplitude < in.Threshold2:
		res.Level = DivergenceWarning
		if res.TimerStartMs == 0 {
			res.TimerStartMs = in.NowMs
			res.TimerStarted = true
		}
		if ElapsedMs(in.NowMs, res.TimerStartMs) >= in.MaxDurationMs {
			res.Level = DivergenceSevere
			res.Escalated = true
		}
	default:
		res.Level = DivergenceSevere
	}

	return res
}
