package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters; the derived key is stored as "saltHex:hashHex" so each
// record is self-describing.
const (
	saltBytes = 16
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	keyLen    = 64
)

// HashPassword derives a password hash with a freshly generated random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	hash, err := scrypt.Key([]byte(password), []byte(saltHex), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return saltHex + ":" + hex.EncodeToString(hash), nil
}

// VerifyPassword recomputes the derived key with the stored salt and compares
// in constant time. Any malformed stored value fails closed.
func VerifyPassword(password, stored string) bool {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	storedHash, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}

	calculated, err := scrypt.Key([]byte(password), []byte(parts[0]), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return false
	}

	if len(storedHash) != len(calculated) {
		return false
	}
	return subtle.ConstantTimeCompare(storedHash, calculated) == 1
}
