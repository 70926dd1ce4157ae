package types

import (
	"github.com/cosmos/cosmos-sdk/codec"
)

// ModuleCdc encodes every record persisted by the keeper.
var ModuleCdc = codec.NewLegacyAmino()

func init() {
	ModuleCdc.Seal()
}
