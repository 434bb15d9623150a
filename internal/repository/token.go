package repository

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashToken returns the storage key for a session token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
