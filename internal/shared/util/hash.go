package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps a principal ("guest:<id>" or "google:<sub>") to a stable hex
// path segment so raw identities never reach object storage keys.
func HashUserKey(principal string) string {
	sum := sha256.Sum256([]byte(principal))
	return hex.EncodeToString(sum[:])
}
