// Package auth hashes and verifies reviewer access codes with argon2id.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidHash = errors.New("auth: malformed argon2id hash")

// Params are the argon2id cost settings written into every encoded hash.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     int
}

// DefaultParams suit a small server; verification reads params from the hash itself.
var DefaultParams = Params{
	Memory:      32 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLen:      32,
	SaltLen:     16,
}

// Hasher hashes access codes with fixed params.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash returns the PHC-style encoding of code with a fresh random salt.
func (h *Hasher) Hash(code string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(normalize(code)), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether code matches encoded. Malformed hashes never match.
func (h *Hasher) Verify(encoded, code string) bool {
	ok, err := verify(encoded, code)
	return err == nil && ok
}

func verify(encoded, code string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}
	var mem, it uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return false, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return false, ErrInvalidHash
	}
	other := argon2.IDKey([]byte(normalize(code)), salt, it, mem, par, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// Codes are typed by hand in chat, so surrounding whitespace is ignored.
func normalize(code string) string {
	return strings.TrimSpace(code)
}
