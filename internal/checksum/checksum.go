// Package checksum fingerprints post sources so the index can tell which
// files changed since they were last analyzed.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Unchanged reports whether data still hashes to a previously stored digest.
// An empty digest never matches.
func Unchanged(data []byte, stored string) bool {
	return stored != "" && Sum(data) == stored
}
