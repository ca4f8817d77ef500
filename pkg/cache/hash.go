package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey derives a cache key for one key family. Every derived key has the
// same shape: a family prefix, the hash of the parent stage's key material,
// and the options that distinguish entries within the family.
// The key format is: prefix:hash(parentHash, opts)
func hashKey(prefix, parentHash string, opts any) string {
	data, _ := json.Marshal(struct {
		Parent string `json:"parent"`
		Opts   any    `json:"opts"`
	}{parentHash, opts})
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions across projects.
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
