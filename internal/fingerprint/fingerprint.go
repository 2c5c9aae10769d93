// Package fingerprint derives content-addressed identity keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ShortLength is the number of hex characters kept by Short.
const ShortLength = 16

// Bytes returns the hex encoded SHA-256 digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Text returns the hex encoded SHA-256 digest of the UTF-8 bytes of s.
// Invalid UTF-8 sequences are dropped before hashing.
func Text(s string) string {
	return Bytes([]byte(strings.ToValidUTF8(s, "")))
}

// Short truncates a hex digest to ShortLength characters.
func Short(digest string) string {
	if len(digest) <= ShortLength {
		return digest
	}
	return digest[:ShortLength]
}

func ShortBytes(b []byte) string {
	return Short(Bytes(b))
}

func ShortText(s string) string {
	return Short(Text(s))
}
