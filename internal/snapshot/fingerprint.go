package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of the text's UTF-8 bytes.
// Empty text hashes to the digest of the empty byte sequence, so "never
// stored" and "stored empty" are indistinguishable here.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
