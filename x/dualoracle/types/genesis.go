package types

import (
	"fmt"
)

// GenesisState is the full engine state used for bootstrapping and export.
type GenesisState struct {
	Params    Params           `json:"params"`
	Providers []ProviderConfig `json:"providers"`
	Slots     []OracleSlot     `json:"slots"`
	Feeds     []FeedConfig     `json:"feeds"`
}

// DefaultGenesis returns an empty engine state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:    DefaultParams(),
		Providers: []ProviderConfig{},
		Slots:     []OracleSlot{},
		Feeds:     []FeedConfig{},
	}
}

// Validate performs basic genesis state validation, including every
// cross-reference between feeds, providers and slots.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	providers := make(map[string]ProviderConfig, len(gs.Providers))
	for _, p := range gs.Providers {
		if err := p.ValidateBasic(); err != nil {
			return err
		}
		if _, dup := providers[p.Name]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate provider %s", p.Name)
		}
		providers[p.Name] = p
	}

	slots := make(map[string]uint32, len(gs.Slots))
	for _, s := range gs.Slots {
		if err := s.ValidateBasic(); err != nil {
			return err
		}
		if _, dup := slots[s.Name]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate slot %s", s.Name)
		}
		slots[s.Name] = s.Decimals
	}

	assets := make(map[string]struct{}, len(gs.Feeds))
	for _, f := range gs.Feeds {
		f.Normalize()
		if err := f.ValidateBasic(); err != nil {
			return err
		}
		if _, dup := assets[f.AssetID]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate feed %s", f.AssetID)
		}
		assets[f.AssetID] = struct{}{}
		decimals, ok := slots[f.OracleSlot]
		if !ok {
			return ErrSlotNotFound.Wrapf("feed %s references slot %s", f.AssetID, f.OracleSlot)
		}
		if decimals != f.OracleDecimals {
			return ErrInvalidDecimals.Wrapf("feed %s uses %d decimals, slot %s holds %d",
				f.AssetID, f.OracleDecimals, f.OracleSlot, decimals)
		}
		for _, b := range []ProviderBinding{f.Primary, f.Secondary} {
			if b.IsEmpty() {
				continue
			}
			if _, ok := providers[b.Provider]; !ok {
				return ErrProviderNotFound.Wrapf("feed %s references provider %s", f.AssetID, b.Provider)
			}
		}
	}

	return nil
}

// String renders a short summary for logs.
func (gs GenesisState) String() string {
	return fmt.Sprintf("providers=%d slots=%d feeds=%d paused=%t",
		len(gs.Providers), len(gs.Slots), len(gs.Feeds), gs.Params.Paused)
}
