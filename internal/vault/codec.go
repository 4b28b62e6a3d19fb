package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// NonceSize is the GCM nonce size in bytes.
	NonceSize = 12
	// TagSize is the GCM authentication tag size in bytes.
	TagSize = 16

	// EnvelopeVersion is the current on-disk envelope format version.
	EnvelopeVersion = 1

	// envelopeHeader is version(1) + nonce + tag; the ciphertext follows.
	envelopeHeader = 1 + NonceSize + TagSize
)

var (
	ErrInvalidEnvelope  = errors.New("vault: invalid envelope format")
	ErrInvalidVersion   = errors.New("vault: unsupported envelope version")
	ErrDecryptionFailed = errors.New("vault: decryption failed")
)

// Envelope is the unit stored on disk for every encrypted payload: a fresh
// random nonce, the GCM authentication tag, and the ciphertext.
type Envelope struct {
	Version    uint8
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Codec performs authenticated encryption for one vault's key material.
// It is content-agnostic: plaintext is whatever serialized bytes the
// caller hands it.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds an AES-256-GCM codec over the given key material.
func NewCodec(km *KeyMaterial) (*Codec, error) {
	block, err := aes.NewCipher(km.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts plaintext under a fresh random nonce. Nonce reuse under the
// same key breaks confidentiality, so the nonce is drawn from crypto/rand
// on every call rather than counted.
func (c *Codec) Seal(plaintext []byte) (*Envelope, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize

	return &Envelope{
		Version:    EnvelopeVersion,
		Nonce:      nonce,
		Tag:        sealed[split:],
		Ciphertext: sealed[:split],
	}, nil
}

// Open decrypts an envelope. Any tampering with nonce, tag, or ciphertext,
// or use of the wrong key, yields ErrDecryptionFailed; there is no partial
// or silently-wrong plaintext.
func (c *Codec) Open(env *Envelope) ([]byte, error) {
	if env.Version != EnvelopeVersion {
		return nil, ErrInvalidVersion
	}
	if len(env.Nonce) != NonceSize || len(env.Tag) != TagSize {
		return nil, ErrInvalidEnvelope
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+TagSize)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := c.aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Marshal serializes an envelope to the fixed on-disk layout:
// version(1) || nonce(12) || tag(16) || ciphertext.
func (env *Envelope) Marshal() []byte {
	buf := make([]byte, 0, envelopeHeader+len(env.Ciphertext))
	buf = append(buf, env.Version)
	buf = append(buf, env.Nonce...)
	buf = append(buf, env.Tag...)
	buf = append(buf, env.Ciphertext...)
	return buf
}

// UnmarshalEnvelope parses the fixed on-disk layout. The version byte is
// checked first so future layout changes can be migrated explicitly.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	if len(data) < envelopeHeader {
		return nil, ErrInvalidEnvelope
	}
	if data[0] != EnvelopeVersion {
		return nil, ErrInvalidVersion
	}

	nonce := make([]byte, NonceSize)
	copy(nonce, data[1:1+NonceSize])

	tag := make([]byte, TagSize)
	copy(tag, data[1+NonceSize:envelopeHeader])

	ciphertext := make([]byte, len(data)-envelopeHeader)
	copy(ciphertext, data[envelopeHeader:])

	return &Envelope{
		Version:    data[0],
		Nonce:      nonce,
		Tag:        tag,
		Ciphertext: ciphertext,
	}, nil
}
