package logjoin

import (
	"crypto/rand"
	"encoding/hex"
)

// Store-key suffixes must not repeat across restarts, so they come from
// the crypto source rather than a process-seeded PRNG.

func hex64() string {
	return randomHex(8)
}

func hex128() string {
	return randomHex(16)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
