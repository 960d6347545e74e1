package util

import (
	"crypto/rand"
	"encoding/hex"
)

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// ShortID returns a compact 10-character identifier, used where the full
// 32-character form is unwieldy (object keys, export filenames).
func ShortID() string {
	bytes := make([]byte, 5)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
