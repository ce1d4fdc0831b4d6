package redis

import "fmt"

const (
	// KeyPrefixSlot is the prefix for slot keys
	KeyPrefixSlot = "bookmarker:slot:"
)

// SlotKey returns the Redis key for a slot name
func SlotKey(name string) string {
	return KeyPrefixSlot + name
}

// ExtractSlotName extracts the slot name from a Redis key
func ExtractSlotName(key string) (string, error) {
	if len(key) <= len(KeyPrefixSlot) || key[:len(KeyPrefixSlot)] != KeyPrefixSlot {
		return "", fmt.Errorf("invalid slot key: %s", key)
	}
	return key[len(KeyPrefixSlot):], nil
}
