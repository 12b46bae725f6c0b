// internal/common/config/hash.go
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the content hash of the merged business configuration.
// It is a pure function of the configuration value: encoding/json sorts
// map keys, so the same config always produces the same hash, which is
// what gates cache reuse.
func Hash(b BusinessConfig) string {
	raw, err := json.Marshal(b)
	if err != nil {
		// BusinessConfig contains only marshalable types; this cannot
		// happen with a value produced by the loader.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
