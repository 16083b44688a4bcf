package random

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// SessionTokenBytes is the entropy of a session token: 32 bytes = 256 bits,
// the minimum for an unguessable bearer token.
const SessionTokenBytes = 32

// VerificationTokenBytes is the entropy of a verification token.
const VerificationTokenBytes = 32

// GenerateRandomBytes returns length cryptographically random bytes.
func GenerateRandomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// GenerateOpaqueToken returns an unguessable URL-safe token carrying
// numBytes of entropy.
func GenerateOpaqueToken(numBytes int) (string, error) {
	b, err := GenerateRandomBytes(numBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token. Tokens are
// stored hashed so a leaked table cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
