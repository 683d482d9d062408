package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RandomHex returns length hex characters drawn from crypto/rand. Used for
// challenges and bearer secrets.
func RandomHex(length int) (string, error) {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}

// HashToken is the lowercase hex SHA-256 of a bearer secret. Only this
// digest is stored, and lookups compare digests.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
