package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	digestLen  = 32
	kdfRounds  = 210000
	saltHexLen = saltLen * 2
)

// HashPassword returns a hash record of the form hex(salt) || hex(digest),
// where digest = PBKDF2-SHA256(password, salt). The salt is fresh per call,
// so hashing the same password twice yields different records.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(password), salt, kdfRounds, digestLen, sha256.New)
	return hex.EncodeToString(salt) + hex.EncodeToString(digest), nil
}

// VerifyPassword recomputes the digest with the salt embedded in the record
// and compares in constant time. Malformed or truncated records verify false;
// this function never errors.
func VerifyPassword(password, record string) bool {
	if len(record) < saltHexLen+1 {
		return false
	}
	salt, err := hex.DecodeString(record[:saltHexLen])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(record[saltHexLen:])
	if err != nil || len(want) != digestLen {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, kdfRounds, digestLen, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
