package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Use full SHA-256 hash (64 hex chars / 256 bits) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LayoutKey generates a cache key for a layout result, keyed by the
// hash of the visible snapshot and the engine that produced it.
func LayoutKey(snapshotHash, engine string) string {
	return hashKey("layout", snapshotHash, engine)
}

// SceneKey generates a cache key for a rendered scene payload.
func SceneKey(snapshotHash, format string) string {
	return hashKey("scene", snapshotHash, format)
}

// FetchKey generates a cache key for a payload downloaded from a URL.
func FetchKey(url string) string {
	return hashKey("fetch", url)
}
