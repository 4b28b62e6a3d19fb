package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/memvault/memvault/internal/domain"
)

// IndexFileName is the well-known name of the encrypted catalog within the
// vault directory. The leading dot keeps it visually apart from entry files.
const IndexFileName = ".index" + EntryFileExt

// ErrMalformedIndex means the index file decrypted successfully but its
// contents failed to parse. Distinct from ErrDecryptionFailed: the key is
// right but the catalog is damaged.
var ErrMalformedIndex = errors.New("vault: index failed to parse")

// Catalog is the decrypted contents of the index file: every known key
// mapped to its file location and metadata, plus the vault's creation time.
type Catalog struct {
	Entries   map[string]domain.IndexEntry `json:"entries"`
	CreatedAt time.Time                    `json:"created_at"`
}

// NewCatalog returns an empty catalog stamped with the current time.
func NewCatalog() *Catalog {
	return &Catalog{
		Entries:   make(map[string]domain.IndexEntry),
		CreatedAt: time.Now().UTC(),
	}
}

// IndexStore persists the catalog as a single encrypted blob, rewritten in
// full on every save. There is no incremental index format.
type IndexStore struct {
	path  string
	codec *Codec
}

// NewIndexStore creates an index store for the given vault directory.
func NewIndexStore(dir string, codec *Codec) *IndexStore {
	return &IndexStore{path: filepath.Join(dir, IndexFileName), codec: codec}
}

// Load reads and decrypts the catalog. An absent index file means a brand
// new vault and yields an empty catalog. A present file that fails to
// decrypt means a wrong key or corruption and is an error, never an empty
// catalog: silently reporting an apparently-intact empty vault would mask
// the difference between "new" and "unreadable".
func (is *IndexStore) Load() (*Catalog, error) {
	data, err := os.ReadFile(is.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCatalog(), nil
		}
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	env, err := UnmarshalEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := is.codec.Open(env)
	if err != nil {
		return nil, err
	}

	var cat Catalog
	if err := json.Unmarshal(plaintext, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	if cat.Entries == nil {
		cat.Entries = make(map[string]domain.IndexEntry)
	}
	return &cat, nil
}

// Save serializes and encrypts the full catalog and atomically replaces the
// index file.
func (is *IndexStore) Save(cat *Catalog) error {
	plaintext, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("failed to serialize index: %w", err)
	}

	env, err := is.codec.Seal(plaintext)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(is.path, env.Marshal(), 0o600); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}

// Exists reports whether the index file is present on disk.
func (is *IndexStore) Exists() bool {
	_, err := os.Stat(is.path)
	return err == nil
}
