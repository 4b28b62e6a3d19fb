package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32

	// KDFIterations is the PBKDF2 iteration count. Changing it breaks
	// password-derived keys for existing vaults, so it is fixed.
	KDFIterations = 100000
)

// kdfSalt is the fixed engine salt for password derivation. Deterministic
// derivation (same password, same key) is the contract: an exported raw key
// and a password-derived key must open the same vault.
var kdfSalt = []byte("memvault.v1.kdf")

var (
	ErrNoKeySource    = errors.New("vault: no password or raw key provided")
	ErrInvalidKeySize = errors.New("vault: invalid key size")
)

// KeyMaterial holds the 256-bit symmetric key for one vault instance.
// It is never persisted in plaintext and never logged.
type KeyMaterial struct {
	key []byte
}

// KeyFromPassword derives key material from a password using
// PBKDF2-HMAC-SHA256 with the fixed engine salt.
func KeyFromPassword(password string) (*KeyMaterial, error) {
	if password == "" {
		return nil, ErrNoKeySource
	}
	key := pbkdf2.Key([]byte(password), kdfSalt, KDFIterations, KeySize, sha256.New)
	return &KeyMaterial{key: key}, nil
}

// KeyFromRaw wraps a caller-supplied raw key, e.g. one restored from an
// earlier ExportKey.
func KeyFromRaw(raw []byte) (*KeyMaterial, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, KeySize, len(raw))
	}
	key := make([]byte, KeySize)
	copy(key, raw)
	return &KeyMaterial{key: key}, nil
}

// EphemeralKey generates a random key. The key is unrecoverable once the
// process exits, so it is only suitable for transient or test vaults.
func EphemeralKey() (*KeyMaterial, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	return &KeyMaterial{key: key}, nil
}

// Bytes returns the raw key. The returned slice is the internal buffer;
// callers must not retain or mutate it.
func (km *KeyMaterial) Bytes() []byte {
	return km.key
}

// Export returns a copy of the raw key for backup. Anyone holding the copy
// can decrypt the vault; secure handling is the caller's responsibility.
func (km *KeyMaterial) Export() []byte {
	out := make([]byte, len(km.key))
	copy(out, km.key)
	return out
}

// Equal performs a constant-time comparison with another key.
func (km *KeyMaterial) Equal(other *KeyMaterial) bool {
	if km == nil || other == nil {
		return km == other
	}
	return subtle.ConstantTimeCompare(km.key, other.key) == 1
}

// Destroy zeroizes the key material.
func (km *KeyMaterial) Destroy() {
	Zeroize(km.key)
}

// Zeroize securely clears a byte slice.
func Zeroize(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
