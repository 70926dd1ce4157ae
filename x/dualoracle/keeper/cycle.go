package keeper

import (
	"math/big"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/dualoracle/x/dualoracle/sources"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

// cycleInput is the state a cycle works from, captured under the store lock.
type cycleInput struct {
	params    types.Params
	feed      types.FeedConfig
	primary   types.ProviderConfig
	secondary types.ProviderConfig

	// secondaryBound is set when a distinct secondary is configured, usable
	// or not. useSecondary additionally requires it registered and enabled.
	secondaryBound bool
	useSecondary   bool
}

type sourceResult struct {
	reading types.Reading
	fresh   bool
	err     error
}

// evaluation is the outcome of the pure part of a cycle.
type evaluation struct {
	result     types.CycleResult
	err        error
	divergence *types.DivergenceResult
	events     sdk.Events

	unavailable []string
	rangeReason string
}

// RunUpdateCycle runs one validation pipeline for assetID and commits the
// price when it passes. Silent skips (paused, disabled, no provider) return
// a result with a nil error. Rejections return the matching sentinel.
func (k *Keeper) RunUpdateCycle(ctx sdk.Context, clock types.Clock, handles types.SourceHandles, assetID string) (types.CycleResult, error) {
	started := time.Now()

	unlock := k.locks.lock(assetID)
	defer unlock()

	in, status, err := k.loadCycle(ctx, assetID)
	if err != nil || status != types.StatusSuccess {
		res := types.CycleResult{AssetID: assetID, Status: status, Price: sdkmath.ZeroUint()}
		k.recordCycle(evaluation{result: res}, started)
		if err == nil {
			k.Logger(ctx).Debug("update cycle skipped", "asset", assetID, "status", status)
		}
		return res, err
	}

	nowMs := clock.NowMs()
	primary, secondary := k.fetchSources(ctx, handles, in, in.feed.OracleDecimals, nowMs)

	ev, applied, err := k.applyCycle(ctx, in, primary, secondary, nowMs)
	if err != nil {
		k.Logger(ctx).Error("failed to persist update cycle", "asset", assetID, "error", err)
		ev.result.Committed = false
		k.recordCycle(ev, started)
		return ev.result, err
	}
	if ev.err == nil && ev.result.Status != types.StatusSuccess {
		k.recordCycle(ev, started)
		k.Logger(ctx).Debug("update cycle skipped after fetch", "asset", assetID, "status", ev.result.Status)
		return ev.result, nil
	}

	ctx.EventManager().EmitEvents(ev.events)
	ctx.EventManager().EmitEvents(applied)
	k.recordCycle(ev, started)

	if ev.err != nil {
		k.Logger(ctx).Warn("update cycle rejected",
			"asset", assetID,
			"status", ev.result.Status,
			"level", ev.result.Level,
			"amplitude", ev.result.Amplitude,
			"error", ev.err,
		)
		return ev.result, ev.err
	}

	k.Logger(ctx).Info("price committed",
		"asset", assetID,
		"price", ev.result.Price,
		"single_source", ev.result.SingleSource,
		"level", ev.result.Level,
	)
	return ev.result, nil
}

// DryRunValidate runs the same pipeline without mutating any state. Target
// decimals come from the price registry slot the feed commits into.
func (k *Keeper) DryRunValidate(ctx sdk.Context, clock types.Clock, handles types.SourceHandles, assetID string) types.CycleResult {
	in, status, _ := k.loadCycle(ctx, assetID)
	if status != types.StatusSuccess {
		return types.CycleResult{AssetID: assetID, Status: status, Price: sdkmath.ZeroUint()}
	}

	nowMs := clock.NowMs()
	decimals := k.slotDecimals(ctx, in.feed, nowMs)
	primary, secondary := k.fetchSources(ctx, handles, in, decimals, nowMs)
	return evaluate(in, primary, secondary, nowMs).result
}

// loadCycle walks the skip checks in order: paused, unknown feed, disabled
// feed, missing primary, disabled primary.
func (k *Keeper) loadCycle(ctx sdk.Context, assetID string) (cycleInput, types.StatusCode, error) {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()
	return k.loadCycleLocked(ctx, assetID)
}

// loadCycleLocked is loadCycle for callers already holding storeMu.
func (k *Keeper) loadCycleLocked(ctx sdk.Context, assetID string) (cycleInput, types.StatusCode, error) {
	in := cycleInput{params: k.getParams(ctx)}
	if in.params.Paused {
		return in, types.StatusPaused, nil
	}

	feed, found := k.getFeed(ctx, assetID)
	if !found {
		return in, types.StatusFeedNotFound, types.WrapWithRecovery(types.ErrFeedNotFound, "asset %s", assetID)
	}
	in.feed = feed
	if !feed.Enabled {
		return in, types.StatusFeedDisabled, nil
	}

	if feed.Primary.IsEmpty() {
		return in, types.StatusNoProvider, nil
	}
	primary, found := k.getProvider(ctx, feed.Primary.Provider)
	if !found {
		return in, types.StatusNoProvider, nil
	}
	if !primary.Enabled {
		return in, types.StatusProviderDisabled, nil
	}
	in.primary = primary

	if feed.HasSecondary() {
		in.secondaryBound = true
		if secondary, ok := k.getProvider(ctx, feed.Secondary.Provider); ok && secondary.Enabled {
			in.secondary = secondary
			in.useSecondary = true
		}
	}
	return in, types.StatusSuccess, nil
}

func (k *Keeper) slotDecimals(ctx sdk.Context, feed types.FeedConfig, nowMs uint64) uint32 {
	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	_, _, decimals, err := k.sink.Read(ctx, feed.OracleSlot, nowMs, feed.MaxTimestampDiffMs)
	if err != nil || decimals == 0 {
		return feed.OracleDecimals
	}
	return decimals
}

// fetchSources reads both sources without holding the store lock. A failed
// fetch counts as a reading that is not fresh.
func (k *Keeper) fetchSources(
	ctx sdk.Context,
	handles types.SourceHandles,
	in cycleInput,
	targetDecimals uint32,
	nowMs uint64,
) (primary, secondary sourceResult) {
	primary = fetchSource(ctx, handles, in.primary, in.feed.Primary, targetDecimals, nowMs, in.feed.MaxTimestampDiffMs)
	if primary.err != nil {
		k.Logger(ctx).Debug("primary fetch failed", "asset", in.feed.AssetID, "provider", in.primary.Name, "error", primary.err)
	}
	if in.useSecondary {
		secondary = fetchSource(ctx, handles, in.secondary, in.feed.Secondary, targetDecimals, nowMs, in.feed.MaxTimestampDiffMs)
		if secondary.err != nil {
			k.Logger(ctx).Debug("secondary fetch failed", "asset", in.feed.AssetID, "provider", in.secondary.Name, "error", secondary.err)
		}
	}
	return primary, secondary
}

func fetchSource(
	ctx sdk.Context,
	handles types.SourceHandles,
	provider types.ProviderConfig,
	binding types.ProviderBinding,
	targetDecimals uint32,
	nowMs, maxDiffMs uint64,
) sourceResult {
	adapter, err := sources.NewAdapter(provider.Kind, handles)
	if err != nil {
		return sourceResult{err: err}
	}
	reading, err := adapter.Fetch(ctx, binding.PairRef, targetDecimals)
	if err != nil {
		return sourceResult{err: err}
	}
	return sourceResult{
		reading: reading,
		fresh:   types.IsFresh(nowMs, reading.ObservedAtMs, maxDiffMs),
	}
}

// evaluate classifies the readings and range-checks the candidate. It
// touches no state; events are collected for the caller to emit.
func evaluate(in cycleInput, primary, secondary sourceResult, nowMs uint64) evaluation {
	feed := in.feed
	ev := evaluation{
		result: types.CycleResult{
			AssetID: feed.AssetID,
			Status:  types.StatusSuccess,
			Price:   sdkmath.ZeroUint(),
		},
	}

	var candidate sdkmath.Uint
	switch {
	case primary.fresh && secondary.fresh:
		div := types.ClassifyDivergence(types.DivergenceInput{
			PrimaryPrice:   primary.reading.Price,
			SecondaryPrice: secondary.reading.Price,
			Threshold1:     feed.PriceDiffThreshold1,
			Threshold2:     feed.PriceDiffThreshold2,
			NowMs:          nowMs,
			MaxDurationMs:  feed.MaxDurationWithinThresholdsMs,
			TimerStartMs:   feed.DivergenceTimerStartMs,
		})
		ev.divergence = &div
		ev.result.Level = div.Level
		ev.result.Amplitude = div.Amplitude

		if div.Level != types.DivergenceNormal {
			ev.events = append(ev.events, divergenceEvent(feed, primary.reading.Price, secondary.reading.Price, div))
		}
		if div.Level == types.DivergenceSevere {
			ev.result.Status = types.StatusInvalidPriceDiff
			ev.err = types.ErrPriceDivergence.Wrapf("asset %s amplitude %d escalated=%t", feed.AssetID, div.Amplitude, div.Escalated)
			return ev
		}
		candidate = primary.reading.Price

	case primary.fresh:
		candidate = primary.reading.Price
		ev.result.SingleSource = in.secondaryBound
		if in.secondaryBound {
			ev.unavailable = append(ev.unavailable, types.SourceSecondary)
			ev.events = append(ev.events, unavailableEvent(feed.AssetID, types.SourceSecondary, candidate, nowMs))
		}

	case secondary.fresh:
		candidate = secondary.reading.Price
		ev.result.SingleSource = true
		ev.unavailable = append(ev.unavailable, types.SourcePrimary)
		ev.events = append(ev.events, unavailableEvent(feed.AssetID, types.SourcePrimary, candidate, nowMs))

	default:
		ev.unavailable = append(ev.unavailable, types.SourcePrimary)
		if in.secondaryBound {
			ev.unavailable = append(ev.unavailable, types.SourceSecondary)
		}
		ev.result.Status = types.StatusNoAvailablePrice
		ev.err = types.WrapWithRecovery(types.ErrNoAvailablePrice, "asset %s", feed.AssetID)
		return ev
	}

	rangeInput := types.RangeInputForFeed(feed, candidate, nowMs)
	check := types.ValidateRange(rangeInput)
	if !check.Valid {
		ev.rangeReason = check.Reason
		ev.events = append(ev.events, invalidPriceEvent(feed.AssetID, rangeInput, check))
		ev.result.Status = types.StatusInvalidFinalPrice
		ev.err = types.ErrInvalidFinalPrice.Wrapf("asset %s price %s: %s", feed.AssetID, candidate, check.Reason)
		return ev
	}

	ev.result.Price = candidate
	return ev
}

// applyCycle judges the readings against the feed, params and providers as
// they stand under storeMu, then persists the outcome in one cache branch:
// timer, history and the registry write on success; only the timer on a
// rejection when Params.PersistTimerOnReject is set. A skip check that now
// fails (pause, disabled feed or provider) aborts without writing. It returns
// the evaluation and the events describing what was persisted.
func (k *Keeper) applyCycle(
	ctx sdk.Context,
	in cycleInput,
	primary, secondary sourceResult,
	nowMs uint64,
) (evaluation, sdk.Events, error) {
	assetID := in.feed.AssetID

	k.storeMu.Lock()
	defer k.storeMu.Unlock()

	cms := ctx.MultiStore().CacheMultiStore()
	branch := ctx.WithMultiStore(cms)

	// Pause and provider toggles do not take the feed lock.
	cur, status, err := k.loadCycleLocked(branch, assetID)
	if err != nil {
		ev := evaluation{result: types.CycleResult{AssetID: assetID, Status: status, Price: sdkmath.ZeroUint()}}
		return ev, nil, types.ErrStateCorruption.Wrapf("feed %s vanished during its cycle", assetID)
	}
	if status != types.StatusSuccess {
		return evaluation{result: types.CycleResult{AssetID: assetID, Status: status, Price: sdkmath.ZeroUint()}}, nil, nil
	}

	primary, secondary = rebaseSources(in, cur, primary, secondary, nowMs)
	ev := evaluate(cur, primary, secondary, nowMs)

	commit := ev.err == nil
	timerChanged := ev.divergence != nil && (ev.divergence.TimerStarted || ev.divergence.TimerReset)
	if !commit && !(cur.params.PersistTimerOnReject && timerChanged) {
		return ev, nil, nil
	}

	feed := cur.feed
	var events sdk.Events
	if ev.divergence != nil {
		feed.DivergenceTimerStartMs = ev.divergence.TimerStartMs
		if ev.divergence.TimerStarted {
			events = append(events, timerEvent(types.EventTypeTimerStarted, feed.AssetID, ev.divergence.TimerStartMs, nowMs))
		}
		if ev.divergence.TimerReset {
			events = append(events, timerEvent(types.EventTypeTimerReset, feed.AssetID, cur.feed.DivergenceTimerStartMs, nowMs))
		}
	}
	feed.LastEvaluatedMs = nowMs

	if commit {
		price := ev.result.Price
		feed.History = types.HistoricalPrice{Price: price, UpdatedAtMs: nowMs}
		if err := k.sink.Write(branch, feed.OracleSlot, price, nowMs); err != nil {
			return ev, nil, err
		}
		events = append(events, sdk.NewEvent(
			types.EventTypePriceCommitted,
			sdk.NewAttribute(types.AttributeKeyAsset, feed.AssetID),
			sdk.NewAttribute(types.AttributeKeySlot, feed.OracleSlot),
			sdk.NewAttribute(types.AttributeKeyPrice, price.String()),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatUint(nowMs, 10)),
		))
	}

	if err := k.setFeed(branch, feed); err != nil {
		return ev, nil, err
	}
	cms.Write()

	ev.result.Committed = commit
	return ev, events, nil
}

// rebaseSources drops readings fetched through a binding or provider kind
// that changed since the fetch and recomputes freshness against the current
// window.
func rebaseSources(was, cur cycleInput, primary, secondary sourceResult, nowMs uint64) (sourceResult, sourceResult) {
	if cur.feed.Primary != was.feed.Primary || cur.primary.Kind != was.primary.Kind {
		primary = sourceResult{}
	}
	if !cur.useSecondary || !was.useSecondary ||
		cur.feed.Secondary != was.feed.Secondary || cur.secondary.Kind != was.secondary.Kind {
		secondary = sourceResult{}
	}
	return refresh(primary, cur.feed.MaxTimestampDiffMs, nowMs), refresh(secondary, cur.feed.MaxTimestampDiffMs, nowMs)
}

func refresh(r sourceResult, maxDiffMs, nowMs uint64) sourceResult {
	if r.err != nil || r.reading.Price.IsNil() {
		r.fresh = false
		return r
	}
	r.fresh = types.IsFresh(nowMs, r.reading.ObservedAtMs, maxDiffMs)
	return r
}

func divergenceEvent(feed types.FeedConfig, primary, secondary sdkmath.Uint, div types.DivergenceResult) sdk.Event {
	return sdk.NewEvent(
		types.EventTypeDivergenceDetected,
		sdk.NewAttribute(types.AttributeKeyAsset, feed.AssetID),
		sdk.NewAttribute(types.AttributeKeyLevel, div.Level.String()),
		sdk.NewAttribute(types.AttributeKeyAmplitude, strconv.FormatUint(div.Amplitude, 10)),
		sdk.NewAttribute(types.AttributeKeyPrimaryPrice, primary.String()),
		sdk.NewAttribute(types.AttributeKeySecondaryPrice, secondary.String()),
		sdk.NewAttribute(types.AttributeKeyThreshold1, strconv.FormatUint(feed.PriceDiffThreshold1, 10)),
		sdk.NewAttribute(types.AttributeKeyThreshold2, strconv.FormatUint(feed.PriceDiffThreshold2, 10)),
		sdk.NewAttribute(types.AttributeKeyTimerStart, strconv.FormatUint(div.TimerStartMs, 10)),
	)
}

func unavailableEvent(assetID, which string, used sdkmath.Uint, nowMs uint64) sdk.Event {
	return sdk.NewEvent(
		types.EventTypeSourceUnavailable,
		sdk.NewAttribute(types.AttributeKeyAsset, assetID),
		sdk.NewAttribute(types.AttributeKeyWhich, which),
		sdk.NewAttribute(types.AttributeKeyPrice, used.String()),
		sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatUint(nowMs, 10)),
	)
}

func invalidPriceEvent(assetID string, in types.RangeInput, check types.RangeResult) sdk.Event {
	return sdk.NewEvent(
		types.EventTypeInvalidPrice,
		sdk.NewAttribute(types.AttributeKeyAsset, assetID),
		sdk.NewAttribute(types.AttributeKeyReason, check.Reason),
		sdk.NewAttribute(types.AttributeKeyPrice, in.Price.String()),
		sdk.NewAttribute(types.AttributeKeyMaxPrice, in.MaxPrice.String()),
		sdk.NewAttribute(types.AttributeKeyMinPrice, in.MinPrice.String()),
		sdk.NewAttribute(types.AttributeKeyMaxSpan, strconv.FormatUint(in.MaxSpanBp, 10)),
		sdk.NewAttribute(types.AttributeKeySpan, strconv.FormatUint(check.Span, 10)),
		sdk.NewAttribute(types.AttributeKeyHistoryPrice, in.HistoryPrice.String()),
		sdk.NewAttribute(types.AttributeKeyHistoryTime, strconv.FormatUint(in.HistoryUpdated, 10)),
		sdk.NewAttribute(types.AttributeKeyHistoryTTL, strconv.FormatUint(in.HistoryTtlMs, 10)),
	)
}

func timerEvent(eventType, assetID string, timerStartMs, nowMs uint64) sdk.Event {
	return sdk.NewEvent(
		eventType,
		sdk.NewAttribute(types.AttributeKeyAsset, assetID),
		sdk.NewAttribute(types.AttributeKeyTimerStart, strconv.FormatUint(timerStartMs, 10)),
		sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatUint(nowMs, 10)),
	)
}

const unknownAssetLabel = "unknown"

func (k *Keeper) recordCycle(ev evaluation, started time.Time) {
	if k.metrics == nil {
		return
	}
	m, res := k.metrics, ev.result

	// Unregistered ids come from callers; keep them out of the label set.
	label := res.AssetID
	if res.Status == types.StatusFeedNotFound {
		label = unknownAssetLabel
	}
	m.Cycles.WithLabelValues(label, res.Status.String()).Inc()
	m.CycleLatency.Observe(time.Since(started).Seconds())

	for _, which := range ev.unavailable {
		m.SourceUnavailable.WithLabelValues(res.AssetID, which).Inc()
	}
	if res.SingleSource {
		m.SingleSource.WithLabelValues(res.AssetID).Inc()
	}
	if ev.divergence != nil {
		m.DivergenceLevels.WithLabelValues(res.AssetID, res.Level.String()).Inc()
		m.Amplitude.WithLabelValues(res.AssetID).Set(float64(res.Amplitude))
		active := 0.0
		if ev.divergence.TimerStartMs != 0 {
			active = 1
		}
		m.ActiveTimers.WithLabelValues(res.AssetID).Set(active)
	}
	if ev.rangeReason != "" {
		m.RangeRejects.WithLabelValues(res.AssetID, ev.rangeReason).Inc()
	}
	if res.Committed {
		f, _ := new(big.Float).SetInt(res.Price.BigInt()).Float64()
		m.CommittedPrice.WithLabelValues(res.AssetID).Set(f)
	}
}
