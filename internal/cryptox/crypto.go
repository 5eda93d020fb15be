// Package cryptox holds the password hashing and session token primitives.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// DigestSize is the raw length of every digest produced here. Digests are
// hex encoded, so their string form is twice as long.
const DigestSize = 32

// Argon2id parameters.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// Supported hasher names, as used in configuration.
const (
	HasherArgon2id = "argon2id"
	HasherSHA256   = "sha256"
)

// Hasher turns a secret into a deterministic, fixed-length, hex encoded digest.
// The same secret always yields the same digest, so stored digests can be
// compared with DigestsEqual.
type Hasher interface {
	Hash(secret string) string
}

// Argon2Hasher derives digests with argon2id keyed by an application-wide
// pepper. The pepper plays the role of a fixed salt: it keeps the output
// deterministic while making precomputed tables for this deployment useless.
type Argon2Hasher struct {
	pepper []byte
}

func NewArgon2Hasher(pepper string) *Argon2Hasher {
	return &Argon2Hasher{pepper: []byte(pepper)}
}

func (h *Argon2Hasher) Hash(secret string) string {
	key := argon2.IDKey([]byte(secret), h.pepper, argonTime, argonMemory, argonThreads, DigestSize)
	return hex.EncodeToString(key)
}

// SHA256Hasher is a plain SHA-256 digest. It reads accounts created by the
// older mobile client, which stored unsalted SHA-256 hex digests.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// NewHasher builds the hasher selected by name.
func NewHasher(name, pepper string) (Hasher, error) {
	switch name {
	case HasherArgon2id, "":
		return NewArgon2Hasher(pepper), nil
	case HasherSHA256:
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
}

// DigestsEqual compares two digests in constant time.
func DigestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
