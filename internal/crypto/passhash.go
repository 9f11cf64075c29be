// Package crypto implements credential hashing and verification.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Verifier compares a presented secret against a stored credential value.
// Implementations decide the storage encoding.
type Verifier interface {
	// Hash derives the storable credential value from a raw secret.
	Hash(secret string) (string, error)
	// Verify reports whether secret matches the stored value.
	Verify(secret, stored string) bool
}

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Argon2 hashes secrets with Argon2id and a per-credential random salt,
// encoding hash and salt into a single PHC-style string.
type Argon2 struct{}

var _ Verifier = Argon2{}

// Hash returns "$argon2id$v=19$m=...,t=...,p=...$<salt>$<key>" for the secret.
func (Argon2) Hash(secret string) (string, error) {
	salt, err := RandBytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// Verify recomputes the hash with the embedded salt and compares in constant time.
func (Argon2) Verify(secret, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var mem, iters uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &threads); err != nil {
		return false
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := enc.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(secret), salt, iters, mem, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// Plain stores and compares secrets verbatim. It exists for compatibility
// with records written before hashing was introduced; do not use for new
// deployments.
type Plain struct{}

var _ Verifier = Plain{}

func (Plain) Hash(secret string) (string, error) { return secret, nil }

func (Plain) Verify(secret, stored string) bool { return secret == stored }
