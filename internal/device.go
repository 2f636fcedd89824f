package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier returns a short stable fingerprint of a login identifier so
// audit records can correlate attempts without storing the raw value.
func HashIdentifier(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:8])
}
