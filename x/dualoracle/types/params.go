package types

// Params are the engine-wide settings.
type Params struct {
	// Paused turns every update cycle into a silent no-op.
	Paused   bool   `json:"paused"`
	PausedBy string `json:"paused_by"`
	// PauseReason is recorded for operators.
	PauseReason string `json:"pause_reason"`

	// PersistTimerOnReject keeps divergence-timer changes made while
	// classifying even when the cycle is rejected afterwards. When false,
	// timer changes are only written together with a committed price.
	PersistTimerOnReject bool `json:"persist_timer_on_reject"`
}

// DefaultParams returns the default engine parameters
func DefaultParams() Params {
	return Params{
		Paused:               false,
		PersistTimerOnReject: true,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if !p.Paused && (p.PausedBy != "" || p.PauseReason != "") {
		return ErrInvalidGenesis.Wrap("pause metadata set while not paused")
	}
	return nil
}
