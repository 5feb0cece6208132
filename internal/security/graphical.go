package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const sequenceSaltLen = 16

// CanonicalSequence joins an ordered list of image tokens into the canonical
// comma-delimited form. Order and token spelling are preserved exactly: the
// order of selections is part of the secret.
func CanonicalSequence(tokens []string) string {
	return strings.Join(tokens, ",")
}

// HashImageSequence computes the lowercase hex SHA-256 digest of the canonical
// sequence with the salt appended.
func HashImageSequence(sequence, salt string) string {
	sum := sha256.Sum256([]byte(sequence + salt))
	return hex.EncodeToString(sum[:])
}

// NewSequenceSalt returns a fresh 16-byte salt as a 32-char hex string.
func NewSequenceSalt() (string, error) {
	salt := make([]byte, sequenceSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}

// VerifyImageSequence recomputes the digest for a submitted sequence against a
// stored salt and compares it to the stored hash in constant time.
func VerifyImageSequence(sequence, salt, storedHash string) bool {
	actual := HashImageSequence(sequence, salt)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(storedHash)) == 1
}
