package vault

import (
	"bytes"
	"errors"
	"testing"
)

func newTestCodec(t *testing.T, password string) *Codec {
	t.Helper()
	km, err := KeyFromRaw(bytes.Repeat([]byte(password[:1]), KeySize))
	if err != nil {
		t.Fatalf("Failed to build key: %v", err)
	}
	codec, err := NewCodec(km)
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	return codec
}

func TestSealOpenRoundTrip(t *testing.T) {
	codec := newTestCodec(t, "a")

	plaintexts := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte(`{"goal":"launch","milestones":["mvp","beta"]}`),
		bytes.Repeat([]byte{0xab}, 64*1024),
	}

	for _, plaintext := range plaintexts {
		env, err := codec.Seal(plaintext)
		if err != nil {
			t.Fatalf("Failed to seal: %v", err)
		}

		if env.Version != EnvelopeVersion {
			t.Errorf("Expected version %d, got %d", EnvelopeVersion, env.Version)
		}
		if len(env.Nonce) != NonceSize {
			t.Errorf("Expected nonce size %d, got %d", NonceSize, len(env.Nonce))
		}
		if len(env.Tag) != TagSize {
			t.Errorf("Expected tag size %d, got %d", TagSize, len(env.Tag))
		}

		opened, err := codec.Open(env)
		if err != nil {
			t.Fatalf("Failed to open: %v", err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Error("Round trip should preserve plaintext")
		}
	}
}

func TestSealUsesFreshNonces(t *testing.T) {
	codec := newTestCodec(t, "a")

	env1, err := codec.Seal([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}
	env2, err := codec.Seal([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("Failed to seal again: %v", err)
	}

	if bytes.Equal(env1.Nonce, env2.Nonce) {
		t.Error("Each seal should use a fresh nonce")
	}
	if bytes.Equal(env1.Ciphertext, env2.Ciphertext) {
		t.Error("Fresh nonces should yield different ciphertexts")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	codec := newTestCodec(t, "a")

	env, err := codec.Seal([]byte("sensitive payload"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	// Flipping any byte of the serialized envelope past the version byte
	// must produce an authentication failure, never wrong plaintext.
	raw := env.Marshal()
	for i := 1; i < len(raw); i++ {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		parsed, err := UnmarshalEnvelope(tampered)
		if err != nil {
			t.Fatalf("Envelope with flipped byte %d should still parse: %v", i, err)
		}
		if _, err := codec.Open(parsed); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("Byte %d: expected ErrDecryptionFailed, got %v", i, err)
		}
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	codec1 := newTestCodec(t, "a")
	codec2 := newTestCodec(t, "b")

	env, err := codec1.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	if _, err := codec2.Open(env); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Expected ErrDecryptionFailed with wrong key, got %v", err)
	}
}

func TestEnvelopeMarshalRoundTrip(t *testing.T) {
	codec := newTestCodec(t, "a")

	env, err := codec.Seal([]byte("frame me"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	parsed, err := UnmarshalEnvelope(env.Marshal())
	if err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}

	if parsed.Version != env.Version ||
		!bytes.Equal(parsed.Nonce, env.Nonce) ||
		!bytes.Equal(parsed.Tag, env.Tag) ||
		!bytes.Equal(parsed.Ciphertext, env.Ciphertext) {
		t.Error("Envelope marshal round trip should preserve all fields")
	}

	opened, err := codec.Open(parsed)
	if err != nil {
		t.Fatalf("Failed to open reparsed envelope: %v", err)
	}
	if string(opened) != "frame me" {
		t.Errorf("Unexpected plaintext: %q", opened)
	}
}

func TestUnmarshalEnvelopeErrors(t *testing.T) {
	if _, err := UnmarshalEnvelope([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected ErrInvalidEnvelope for short data, got %v", err)
	}

	bad := make([]byte, envelopeHeader+4)
	bad[0] = 99
	if _, err := UnmarshalEnvelope(bad); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Expected ErrInvalidVersion for unknown version, got %v", err)
	}
}
