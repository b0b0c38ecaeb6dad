package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// TokenFingerprint returns a SHA-256 hash of the session token, hex-encoded.
// The seal binds the fingerprint so the raw token is never copied into claims.
func TokenFingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// FingerprintEqual performs constant-time comparison of the token's fingerprint with want.
func FingerprintEqual(token, want string) bool {
	return subtle.ConstantTimeCompare([]byte(TokenFingerprint(token)), []byte(want)) == 1
}
