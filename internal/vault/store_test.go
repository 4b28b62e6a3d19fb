package vault

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/memvault/memvault/internal/domain"
)

func TestFileNameFilesystemSafe(t *testing.T) {
	keys := []string{
		"simple",
		"with spaces and UPPER",
		"path/../traversal",
		"unicode-ключ-鍵",
		"...",
		strings.Repeat("x", 500),
	}

	seen := make(map[string]bool)
	for _, key := range keys {
		name := FileName(key)

		if !strings.HasSuffix(name, EntryFileExt) {
			t.Errorf("Name %q should end with %s", name, EntryFileExt)
		}
		if strings.ContainsAny(name, "/\\") {
			t.Errorf("Name %q should not contain path separators", name)
		}
		if strings.HasPrefix(name, ".") {
			t.Errorf("Name %q should not be hidden, reserved for the index", name)
		}
		if len(name) > maxNamePrefix+32 {
			t.Errorf("Name %q too long (%d)", name, len(name))
		}
		if seen[name] {
			t.Errorf("Name collision for key %q", key)
		}
		seen[name] = true

		// Deterministic
		if FileName(key) != name {
			t.Errorf("FileName should be deterministic for %q", key)
		}
	}
}

func TestFileNameDistinctForSimilarKeys(t *testing.T) {
	// Keys that sanitize to the same prefix must still get distinct names.
	a := FileName("my key")
	b := FileName("my/key")
	if a == b {
		t.Errorf("Keys with identical sanitized prefixes should not collide: %q", a)
	}
}

func TestEntryStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	codec := newTestCodec(t, "a")
	es := NewEntryStore(dir, codec)

	entry := &domain.Entry{
		Key:       "greeting",
		Value:     "hello world",
		Metadata:  map[string]string{"category": domain.CategoryKnowledge},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	location, err := es.Write(entry)
	if err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, location))
	if err != nil {
		t.Fatalf("Entry file not created: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Incorrect file permissions: got %o, want 0600", info.Mode().Perm())
	}

	got, err := es.Read(location)
	if err != nil {
		t.Fatalf("Failed to read entry: %v", err)
	}
	if got.Key != "greeting" || got.Value != "hello world" {
		t.Errorf("Unexpected entry: %+v", got)
	}
	if got.Metadata["category"] != domain.CategoryKnowledge {
		t.Errorf("Metadata not preserved: %+v", got.Metadata)
	}
}

func TestEntryStoreDistinguishesFailures(t *testing.T) {
	dir := t.TempDir()
	codec := newTestCodec(t, "a")
	es := NewEntryStore(dir, codec)

	// Missing file
	if _, err := es.Read("nope.vlt"); !errors.Is(err, ErrEntryFileMissing) {
		t.Errorf("Expected ErrEntryFileMissing, got %v", err)
	}

	// Wrong key
	location, err := es.Write(&domain.Entry{Key: "k", Value: "v"})
	if err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	other := NewEntryStore(dir, newTestCodec(t, "b"))
	if _, err := other.Read(location); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Expected ErrDecryptionFailed, got %v", err)
	}

	// Garbage on disk is corrupted data, reported as an authentication
	// failure like any other tampering.
	if err := os.WriteFile(filepath.Join(dir, "junk.vlt"), []byte{0x00}, 0o600); err != nil {
		t.Fatalf("Failed to plant junk file: %v", err)
	}
	if _, err := es.Read("junk.vlt"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Expected ErrDecryptionFailed, got %v", err)
	}
}

func TestEntryStoreDelete(t *testing.T) {
	dir := t.TempDir()
	es := NewEntryStore(dir, newTestCodec(t, "a"))

	location, err := es.Write(&domain.Entry{Key: "k", Value: "v"})
	if err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	if err := es.Delete(location); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}
	if err := es.Delete(location); !errors.Is(err, ErrEntryFileMissing) {
		t.Errorf("Expected ErrEntryFileMissing on second delete, got %v", err)
	}
}

func TestIndexStoreNewVault(t *testing.T) {
	dir := t.TempDir()
	is := NewIndexStore(dir, newTestCodec(t, "a"))

	if is.Exists() {
		t.Fatal("Index should not exist yet")
	}

	cat, err := is.Load()
	if err != nil {
		t.Fatalf("Loading an absent index should yield an empty catalog: %v", err)
	}
	if len(cat.Entries) != 0 {
		t.Errorf("Expected empty catalog, got %d entries", len(cat.Entries))
	}
	if cat.CreatedAt.IsZero() {
		t.Error("New catalog should carry a creation timestamp")
	}
}

func TestIndexStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	is := NewIndexStore(dir, newTestCodec(t, "a"))

	cat := NewCatalog()
	cat.Entries["alpha"] = domain.IndexEntry{
		Key:          "alpha",
		FileLocation: FileName("alpha"),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
		Metadata:     map[string]string{"category": domain.CategoryGoals},
	}

	if err := is.Save(cat); err != nil {
		t.Fatalf("Failed to save index: %v", err)
	}
	if !is.Exists() {
		t.Fatal("Index file should exist after save")
	}

	loaded, err := is.Load()
	if err != nil {
		t.Fatalf("Failed to load index: %v", err)
	}
	got, ok := loaded.Entries["alpha"]
	if !ok {
		t.Fatal("Saved entry missing after load")
	}
	if got.FileLocation != FileName("alpha") || got.Metadata["category"] != domain.CategoryGoals {
		t.Errorf("Unexpected index entry: %+v", got)
	}
}

func TestIndexStoreWrongKeyIsNotEmptyVault(t *testing.T) {
	dir := t.TempDir()
	is := NewIndexStore(dir, newTestCodec(t, "a"))

	if err := is.Save(NewCatalog()); err != nil {
		t.Fatalf("Failed to save index: %v", err)
	}

	// A present-but-undecryptable index must raise, never report an
	// apparently-intact empty vault.
	wrong := NewIndexStore(dir, newTestCodec(t, "b"))
	if _, err := wrong.Load(); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Expected ErrDecryptionFailed, got %v", err)
	}
}

func TestIndexStoreMalformedIndex(t *testing.T) {
	dir := t.TempDir()
	codec := newTestCodec(t, "a")
	is := NewIndexStore(dir, codec)

	// Valid envelope, garbage plaintext.
	env, err := codec.Seal([]byte("this is not json"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFileName), env.Marshal(), 0o600); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	if _, err := is.Load(); !errors.Is(err, ErrMalformedIndex) {
		t.Errorf("Expected ErrMalformedIndex, got %v", err)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")

	if err := writeFileAtomic(path, []byte("one"), 0o600); err != nil {
		t.Fatalf("Failed first write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("two"), 0o600); err != nil {
		t.Fatalf("Failed second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("Expected replaced content, got %q", data)
	}

	// No temp files left behind
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), ".tmp-") {
			t.Errorf("Leftover temp file %s", f.Name())
		}
	}
}
