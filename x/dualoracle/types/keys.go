package types

const (
	// ModuleName defines the module name
	ModuleName = "dualoracle"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

var (
	// ModuleNamespace is the namespace byte for the dualoracle store (0x05)
	ModuleNamespace = byte(0x05)

	// ParamsKey is the key for engine parameters
	ParamsKey = []byte{0x05, 0x01}

	// FeedKeyPrefix is the prefix for FeedConfig records, keyed by asset id
	FeedKeyPrefix = []byte{0x05, 0x02}

	// ProviderKeyPrefix is the prefix for registered price providers
	ProviderKeyPrefix = []byte{0x05, 0x03}

	// SlotKeyPrefix is the prefix for price-registry slots
	SlotKeyPrefix = []byte{0x05, 0x04}
)

// GetFeedKey returns the store key for a feed by asset id
func GetFeedKey(assetID string) []byte {
	return appendKey(FeedKeyPrefix, assetID)
}

// GetProviderKey returns the store key for a provider by name
func GetProviderKey(name string) []byte {
	return appendKey(ProviderKeyPrefix, name)
}

// GetSlotKey returns the store key for a price-registry slot
func GetSlotKey(slot string) []byte {
	return appendKey(SlotKeyPrefix, slot)
}

func appendKey(prefix []byte, id string) []byte {
	key := make([]byte, 0, len(prefix)+len(id))
	key = append(key, prefix...)
	return append(key, []byte(id)...)
}
