package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestLength is the length of a hex-encoded SHA-256 digest.
const DigestLength = 64

// Hasher produces deterministic salted password digests. The salt is a
// process-wide secret shared with the frontend, which applies the same
// transform before the password ever crosses the wire; the digest function is
// therefore part of the API contract. There is no per-record salt and no
// adaptive work factor, which trades offline-attack resistance for
// comparability of stored and submitted digests.
type Hasher struct {
	salt string
}

// NewHasher creates a Hasher with the given process-wide salt.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: salt}
}

// Digest returns the 64-char lowercase hex SHA-256 digest of password+salt.
func (h *Hasher) Digest(password string) string {
	sum := sha256.Sum256([]byte(password + h.salt))
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether s already looks like a hex digest. Admin creation
// uses this to store client-side-hashed passwords verbatim instead of
// double-hashing them.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
