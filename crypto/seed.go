package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateSessionSeed creates a fresh random session seed.
// The seed is the sole source of entropy for one playthrough.
func GenerateSessionSeed() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// HashHex returns the lowercase hex SHA-256 of the input string
func HashHex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// IsHashHex reports whether s is exactly a lowercase 64-char hex digest
func IsHashHex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
