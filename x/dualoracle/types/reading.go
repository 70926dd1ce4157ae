package types

import (
	"context"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Reading is one normalized sample from a source. Never persisted.
type Reading struct {
	Price        sdkmath.Uint
	Decimals     uint32
	ObservedAtMs uint64
}

// Clock supplies the current time in milliseconds since epoch.
type Clock interface {
	NowMs() uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) NowMs() uint64 { return uint64(time.Now().UnixMilli()) }

// ManualClock is a settable clock for tests and deterministic replay.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock returns a clock fixed at nowMs.
func NewManualClock(nowMs uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(nowMs)
	return c
}

func (c *ManualClock) NowMs() uint64 { return c.now.Load() }

// Set moves the clock to nowMs.
func (c *ManualClock) Set(nowMs uint64) { c.now.Store(nowMs) }

// Advance moves the clock forward by deltaMs.
func (c *ManualClock) Advance(deltaMs uint64) { c.now.Add(deltaMs) }

// StreamQuote is the raw value a streaming provider holds for a pair.
type StreamQuote struct {
	Value       sdkmath.Uint
	Decimals    uint32
	TimestampMs uint64
}

// StreamFeed is the external handle of a streaming (Provider A) source.
type StreamFeed interface {
	LatestQuote(ctx context.Context, pairID uint32) (StreamQuote, error)
}

// AttestedPrice is an attested price object (Provider B). Timestamps are in seconds.
type AttestedPrice struct {
	FeedID         string
	Price          sdkmath.Uint
	Decimals       uint32
	PublishTimeSec uint64
}

// AttestedPriceReader is the external handle of an attested (Provider B) source.
type AttestedPriceReader interface {
	PriceObject(ctx context.Context, feedID string) (AttestedPrice, error)
}

// SourceHandles bundles the external handles passed into a cycle. A nil
// handle makes every provider of that kind unavailable.
type SourceHandles struct {
	Stream   StreamFeed
	Attested AttestedPriceReader
}

// SourceAdapter turns one provider into normalized readings.
type SourceAdapter interface {
	Kind() ProviderKind
	Fetch(ctx context.Context, pairRef string, targetDecimals uint32) (Reading, error)
}

// PriceRegistrySink receives committed prices for downstream consumers.
type PriceRegistrySink interface {
	Write(ctx context.Context, slot string, price sdkmath.Uint, atMs uint64) error
	Read(ctx context.Context, slot string, nowMs, maxStalenessMs uint64) (fresh bool, price sdkmath.Uint, decimals uint32, err error)
}

// AdminAuthority gates admin mutations.
type AdminAuthority interface {
	Authorize(actor string) error
}

// StaticAuthority authorizes a single fixed actor.
type StaticAuthority string

func (a StaticAuthority) Authorize(actor string) error {
	if string(a) == "" || actor != string(a) {
		return ErrUnauthorized.Wrapf("actor %q is not the engine authority", actor)
	}
	return nil
}
