package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/memvault/memvault/internal/domain"
)

const (
	// EntryFileExt is the extension for per-entry files in the vault dir.
	EntryFileExt = ".vlt"

	// maxNamePrefix bounds the readable portion of an entry filename so
	// key escaping can never produce an over-long path.
	maxNamePrefix = 40
)

var (
	ErrEntryFileMissing = errors.New("vault: entry file missing")
	ErrMalformedEntry   = errors.New("vault: entry record failed to parse")
)

// EntryStore persists one logical key-value pair as one encrypted file on
// disk. It performs no index mutation; keeping entry and index concerns
// separate is the engine's job.
type EntryStore struct {
	dir   string
	codec *Codec
}

// NewEntryStore creates an entry store rooted at the vault directory.
func NewEntryStore(dir string, codec *Codec) *EntryStore {
	return &EntryStore{dir: dir, codec: codec}
}

// FileName derives the filesystem-safe filename for a logical key. The name
// is a sanitized prefix of the key plus a truncated SHA-256 of the full key,
// so arbitrary keys stay readable on disk while distinct keys cannot
// collide without a hash collision.
func FileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:8])

	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxNamePrefix {
			break
		}
	}

	prefix := strings.Trim(b.String(), ".")
	if prefix == "" {
		return digest + EntryFileExt
	}
	return prefix + "-" + digest + EntryFileExt
}

// Write serializes the entry record, encrypts it, and writes it to its
// derived filename via temp-file plus atomic rename. It returns the
// filename relative to the vault directory.
func (es *EntryStore) Write(entry *domain.Entry) (string, error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to serialize entry: %w", err)
	}

	env, err := es.codec.Seal(plaintext)
	if err != nil {
		return "", err
	}

	name := FileName(entry.Key)
	if err := writeFileAtomic(filepath.Join(es.dir, name), env.Marshal(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write entry file: %w", err)
	}
	return name, nil
}

// Read loads and decrypts the entry at the given location (a filename
// relative to the vault directory). A missing file, an authentication
// failure, and a post-decryption parse failure are distinct conditions:
// the first means the index is stale, the latter two mean corruption.
func (es *EntryStore) Read(fileLocation string) (*domain.Entry, error) {
	data, err := os.ReadFile(filepath.Join(es.dir, fileLocation))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEntryFileMissing, fileLocation)
		}
		return nil, fmt.Errorf("failed to read entry file: %w", err)
	}

	// An envelope that does not even parse is corrupted data; on the read
	// path that counts as an authentication failure, same as a bad tag.
	env, err := UnmarshalEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := es.codec.Open(env)
	if err != nil {
		return nil, err
	}

	var entry domain.Entry
	if err := json.Unmarshal(plaintext, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	return &entry, nil
}

// Delete removes the entry file. A missing file is reported via
// ErrEntryFileMissing so the caller can decide whether that matters.
func (es *EntryStore) Delete(fileLocation string) error {
	err := os.Remove(filepath.Join(es.dir, fileLocation))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrEntryFileMissing, fileLocation)
		}
		return fmt.Errorf("failed to delete entry file: %w", err)
	}
	return nil
}

// Size reports the on-disk size of an entry file, or 0 if it is gone.
func (es *EntryStore) Size(fileLocation string) int64 {
	info, err := os.Stat(filepath.Join(es.dir, fileLocation))
	if err != nil {
		return 0
	}
	return info.Size()
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it into place, so readers never observe a partial write.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
