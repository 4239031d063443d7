package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Hasher hashes passwords with Argon2id. The encoded form embeds the
// parameters and salt so that the non-secret salt prefix (everything before
// the final '$') is enough to recompute the full hash for a candidate
// password. That property is what the privilege-separated check protocol
// in this package relies on: the application recomputes the full encoded
// hash client-side and the database only answers equal-or-not.
type Argon2Hasher struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// NewArgon2Hasher creates a new Argon2Hasher with default parameters
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		memory:      64 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
	}
}

// Hash hashes a password with a fresh random salt.
// Format: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
func (h *Argon2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, h.iterations, h.memory, h.parallelism, h.keyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encodedHash := fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		h.memory,
		h.iterations,
		h.parallelism,
		b64Salt,
		b64Hash,
	)

	return encodedHash, nil
}

// SaltPrefix returns the non-secret prefix of an encoded hash: the
// algorithm, parameters and salt, without the digest
func SaltPrefix(encodedHash string) (string, error) {
	idx := strings.LastIndex(encodedHash, "$")
	if idx <= 0 {
		return "", errors.New("invalid hash format")
	}
	return encodedHash[:idx], nil
}

// HashWithSaltPrefix recomputes the full encoded hash for a candidate
// password using the parameters and salt carried in the prefix. The result
// is deterministic: equal passwords yield byte-identical encoded hashes.
func (h *Argon2Hasher) HashWithSaltPrefix(password, saltPrefix string) (string, error) {
	if password == "" || saltPrefix == "" {
		return "", errors.New("password and salt prefix cannot be empty")
	}

	// saltPrefix looks like $argon2id$v=19$m=65536,t=3,p=2$<salt>
	parts := strings.Split(saltPrefix, "$")
	if len(parts) != 5 {
		return "", errors.New("invalid salt prefix format")
	}

	if parts[1] != "argon2id" {
		return "", errors.New("incompatible hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return "", errors.New("invalid salt prefix format")
	}
	if version != 19 {
		return "", errors.New("incompatible argon2id version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return "", errors.New("invalid salt prefix format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return "", errors.New("invalid salt encoding")
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, h.keyLength)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return saltPrefix + "$" + b64Hash, nil
}

// Verify checks a password against a full encoded hash locally. The
// request-serving runtime never uses this path (it only holds salt
// prefixes); it exists for administrative tooling and tests.
func (h *Argon2Hasher) Verify(password, encodedHash string) (bool, error) {
	prefix, err := SaltPrefix(encodedHash)
	if err != nil {
		return false, err
	}

	computed, err := h.HashWithSaltPrefix(password, prefix)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(encodedHash)) == 1, nil
}
