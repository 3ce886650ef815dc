package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates size random bytes and returns them hex encoded,
// so the result is twice as long as size. Used for session ids.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites b with zeros. Passwords read from a terminal are
// wiped once they have been copied where they need to go.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
