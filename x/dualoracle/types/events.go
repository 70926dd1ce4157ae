package types

// Event types for the dualoracle module
// All event types use lowercase with underscore separator (module_action format)
const (
	EventTypeDivergenceDetected = "dualoracle_divergence_detected"
	EventTypeSourceUnavailable  = "dualoracle_source_unavailable"
	EventTypeInvalidPrice       = "dualoracle_invalid_price"
	EventTypeTimerStarted       = "dualoracle_divergence_timer_started"
	EventTypeTimerReset         = "dualoracle_divergence_timer_reset"
	EventTypePriceCommitted     = "dualoracle_price_committed"
	EventTypeFeedUpdated        = "dualoracle_feed_updated"
	EventTypeProviderUpdated    = "dualoracle_provider_updated"
	EventTypePaused             = "dualoracle_paused"
	EventTypeResumed            = "dualoracle_resumed"
)

// Event attribute keys
const (
	AttributeKeyAsset     = "asset"
	AttributeKeySlot      = "slot"
	AttributeKeyLevel     = "level"
	AttributeKeyAmplitude = "amplitude"
	AttributeKeySpan      = "span"
	AttributeKeyReason    = "reason"
	AttributeKeyActor     = "actor"
	AttributeKeyField     = "field"
	AttributeKeyProvider  = "provider"
	AttributeKeyEnabled   = "enabled"
	AttributeKeyWhich     = "which"
	AttributeKeyTimestamp = "timestamp"

	AttributeKeyPrice          = "price"
	AttributeKeyPrimaryPrice   = "primary_price"
	AttributeKeySecondaryPrice = "secondary_price"
	AttributeKeyThreshold1     = "threshold1"
	AttributeKeyThreshold2     = "threshold2"
	AttributeKeyTimerStart     = "timer_start"
	AttributeKeyMaxPrice       = "max_price"
	AttributeKeyMinPrice       = "min_price"
	AttributeKeyMaxSpan        = "max_span_bp"
	AttributeKeyHistoryPrice   = "history_price"
	AttributeKeyHistoryTime    = "history_updated_at"
	AttributeKeyHistoryTTL     = "history_ttl"
)

// Source roles used in the "which" attribute
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
)
