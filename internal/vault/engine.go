// Package vault implements the encrypted storage engine: key derivation,
// per-entry authenticated encryption, the encrypted index, and the
// store/retrieve/delete/list/search operations over them.
package vault

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/memvault/memvault/internal/domain"
)

// DefaultLockTimeout bounds how long Open waits for the advisory lock.
const DefaultLockTimeout = 5 * time.Second

// ErrAmbiguousKeySource is returned when both a password and a raw key are
// supplied; the engine refuses to guess which one the caller meant.
var ErrAmbiguousKeySource = errors.New("vault: both password and raw key provided")

// Recorder receives a notification for every completed engine operation.
// The audit log implements it; a nil Recorder disables auditing.
type Recorder interface {
	Record(opType, key string, success bool)
}

// Options configures Open. Exactly one of Password or RawKey must be set,
// unless Ephemeral is true, in which case a random unrecoverable key is
// generated; that mode is only suitable for transient or test vaults.
type Options struct {
	Password  string
	RawKey    []byte
	Ephemeral bool

	// LockTimeout overrides DefaultLockTimeout when positive.
	LockTimeout time.Duration

	// Recorder, when non-nil, receives audit events.
	Recorder Recorder
}

// Vault is the storage engine façade. It owns the key material, the
// in-memory catalog (loaded once at Open and held for the instance's life),
// and the on-disk vault directory. Operations are serialized by an internal
// mutex; cross-process exclusion is the advisory lock's job.
type Vault struct {
	mu sync.Mutex

	dir      string
	km       *KeyMaterial
	entries  *EntryStore
	index    *IndexStore
	catalog  *Catalog
	lock     *FileLock
	recorder Recorder
	closed   bool
}

// Open initializes the engine over a vault directory, creating it if
// needed. The index is decrypted eagerly so a wrong password fails here,
// at the door, rather than on first retrieve.
func Open(dir string, opts Options) (*Vault, error) {
	km, err := keyFromOptions(opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		km.Destroy()
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	lock := NewFileLock(dir)
	if err := lock.Lock(timeout); err != nil {
		km.Destroy()
		return nil, err
	}

	codec, err := NewCodec(km)
	if err != nil {
		lock.Unlock()
		km.Destroy()
		return nil, err
	}

	index := NewIndexStore(dir, codec)
	fresh := !index.Exists()
	catalog, err := index.Load()
	if err != nil {
		lock.Unlock()
		km.Destroy()
		return nil, err
	}

	// A brand-new vault persists its empty catalog immediately: the index
	// file is what binds the key to the directory, so a later open with a
	// different password must fail here instead of silently succeeding.
	// This also pins the vault's creation time.
	if fresh {
		if err := index.Save(catalog); err != nil {
			lock.Unlock()
			km.Destroy()
			return nil, err
		}
	}

	return &Vault{
		dir:      dir,
		km:       km,
		entries:  NewEntryStore(dir, codec),
		index:    index,
		catalog:  catalog,
		lock:     lock,
		recorder: opts.Recorder,
	}, nil
}

func keyFromOptions(opts Options) (*KeyMaterial, error) {
	switch {
	case opts.Password != "" && len(opts.RawKey) > 0:
		return nil, ErrAmbiguousKeySource
	case opts.Password != "":
		return KeyFromPassword(opts.Password)
	case len(opts.RawKey) > 0:
		return KeyFromRaw(opts.RawKey)
	case opts.Ephemeral:
		return EphemeralKey()
	default:
		return nil, ErrNoKeySource
	}
}

// Close releases the advisory lock and zeroizes the key material. The
// instance must not be used afterwards.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true

	err := v.lock.Unlock()
	v.km.Destroy()
	return err
}

// Store creates or fully replaces the entry for key. CreatedAt is preserved
// from a prior entry; UpdatedAt is refreshed. The entry file is written
// before the index so a crash between the two leaves at worst an orphan
// file, recoverable by re-running Store or a Verify pass.
func (v *Vault) Store(key string, value interface{}, metadata map[string]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key == "" {
		return errors.New("vault: empty key")
	}
	// Copy so a caller mutating its map after Store cannot alter the entry
	// or the catalog behind the engine's back.
	metadata = cloneMetadata(metadata)

	now := time.Now().UTC()
	entry := &domain.Entry{
		Key:       key,
		Value:     value,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prior, ok := v.catalog.Entries[key]; ok {
		entry.CreatedAt = prior.CreatedAt
	}

	location, err := v.entries.Write(entry)
	if err != nil {
		v.record("store", key, false)
		return err
	}

	v.catalog.Entries[key] = domain.IndexEntry{
		Key:          key,
		FileLocation: location,
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
		Metadata:     metadata,
	}

	if err := v.index.Save(v.catalog); err != nil {
		// The entry file is on disk but unreferenced. Reload the catalog
		// from disk so memory matches what persisted.
		if reloaded, loadErr := v.index.Load(); loadErr == nil {
			v.catalog = reloaded
		}
		v.record("store", key, false)
		return err
	}

	v.record("store", key, true)
	return nil
}

// Retrieve returns the decrypted value for key, or nil if the key is not in
// the index. An indexed key whose backing file is missing or fails
// authentication is a genuine fault and returns a distinct error rather
// than nil: it means the index and the entry files disagree.
func (v *Vault) Retrieve(key string) (interface{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	info, ok := v.catalog.Entries[key]
	if !ok {
		return nil, nil
	}

	entry, err := v.entries.Read(info.FileLocation)
	if err != nil {
		v.record("retrieve", key, false)
		return nil, err
	}

	v.record("retrieve", key, true)
	return entry.Value, nil
}

// Delete removes the entry file and the index entry. Deleting an absent key
// is an idempotent no-op returning false, not an error.
func (v *Vault) Delete(key string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	info, ok := v.catalog.Entries[key]
	if !ok {
		return false, nil
	}

	if err := v.entries.Delete(info.FileLocation); err != nil && !errors.Is(err, ErrEntryFileMissing) {
		v.record("delete", key, false)
		return false, err
	}

	delete(v.catalog.Entries, key)
	if err := v.index.Save(v.catalog); err != nil {
		v.record("delete", key, false)
		return false, err
	}

	v.record("delete", key, true)
	return true, nil
}

// List enumerates index entries, optionally filtered by exact match on one
// or more metadata fields, ordered by key. This is the one read path that
// never decrypts entry payloads: everything it returns lives in the index.
func (v *Vault) List(filter map[string]string) []domain.EntrySummary {
	v.mu.Lock()
	defer v.mu.Unlock()

	summaries := make([]domain.EntrySummary, 0, len(v.catalog.Entries))
	for key, info := range v.catalog.Entries {
		if !matchesMetadata(info.Metadata, filter) {
			continue
		}
		summaries = append(summaries, domain.EntrySummary{
			Key:       key,
			CreatedAt: info.CreatedAt,
			UpdatedAt: info.UpdatedAt,
			Metadata:  info.Metadata,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Key < summaries[j].Key
	})
	return summaries
}

func cloneMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

func matchesMetadata(metadata, filter map[string]string) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}

// Search decrypts every entry and matches the query case-insensitively
// against the value's text form, scoring by occurrence count and sorting by
// descending relevance (ties by key). Cost is linear in total vault size;
// there is no plaintext index to consult. Entries that fail to decrypt are
// skipped with a warning so one corrupt entry does not hide the rest; run
// Verify to enumerate them.
func (v *Vault) Search(query string) []domain.SearchResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	results := make([]domain.SearchResult, 0)
	for key, info := range v.catalog.Entries {
		entry, err := v.entries.Read(info.FileLocation)
		if err != nil {
			log.Printf("Warning: skipping unreadable entry %q during search: %v", key, err)
			continue
		}

		score := Relevance(SearchText(entry.Value), query)
		if score == 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			Key:       key,
			Value:     entry.Value,
			Relevance: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Key < results[j].Key
	})
	return results
}

// ExportKey returns a copy of the raw key material for backup. There is no
// confidentiality guarantee on the copy; the caller handles it securely.
func (v *Vault) ExportKey() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.km.Export()
}

// Stats reports entry count, total on-disk entry size, and vault age.
func (v *Vault) Stats() domain.Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	var total int64
	for _, info := range v.catalog.Entries {
		total += v.entries.Size(info.FileLocation)
	}

	return domain.Stats{
		TotalEntries:   len(v.catalog.Entries),
		TotalSizeBytes: total,
		CreatedAt:      v.catalog.CreatedAt,
		VaultPath:      v.dir,
	}
}

// VerifyReport is the result of reconciling the index against the entry
// files on disk.
type VerifyReport struct {
	// Dangling lists indexed keys whose entry file is missing.
	Dangling []string
	// Undecryptable lists indexed keys whose entry file exists but fails
	// authentication or parsing.
	Undecryptable []string
	// Orphans lists entry files on disk that no index entry references.
	Orphans []string
}

// Clean reports whether the index and entry files are fully consistent.
func (r *VerifyReport) Clean() bool {
	return len(r.Dangling) == 0 && len(r.Undecryptable) == 0 && len(r.Orphans) == 0
}

// Verify reconciles the index with the entry files: every indexed key must
// resolve to a decryptable file, and every entry file must be indexed.
func (v *Vault) Verify() (*VerifyReport, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verifyLocked()
}

func (v *Vault) verifyLocked() (*VerifyReport, error) {
	report := &VerifyReport{}

	referenced := make(map[string]bool, len(v.catalog.Entries))
	for key, info := range v.catalog.Entries {
		referenced[info.FileLocation] = true
		_, err := v.entries.Read(info.FileLocation)
		switch {
		case err == nil:
		case errors.Is(err, ErrEntryFileMissing):
			report.Dangling = append(report.Dangling, key)
		default:
			report.Undecryptable = append(report.Undecryptable, key)
		}
	}

	files, err := os.ReadDir(v.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault directory: %w", err)
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || name == IndexFileName || !strings.HasSuffix(name, EntryFileExt) {
			continue
		}
		if !referenced[name] {
			report.Orphans = append(report.Orphans, name)
		}
	}

	sort.Strings(report.Dangling)
	sort.Strings(report.Undecryptable)
	sort.Strings(report.Orphans)
	return report, nil
}

// Repair drops index entries whose files are gone and, when removeOrphans
// is set, deletes unreferenced entry files. Undecryptable entries are left
// untouched: deleting them would destroy the only copy of the data, so that
// decision stays with the operator. Returns the pre-repair report.
func (v *Vault) Repair(removeOrphans bool) (*VerifyReport, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	report, err := v.verifyLocked()
	if err != nil {
		return nil, err
	}

	changed := false
	for _, key := range report.Dangling {
		delete(v.catalog.Entries, key)
		changed = true
	}
	if changed {
		if err := v.index.Save(v.catalog); err != nil {
			return report, err
		}
	}

	if removeOrphans {
		for _, name := range report.Orphans {
			if err := v.entries.Delete(name); err != nil && !errors.Is(err, ErrEntryFileMissing) {
				return report, err
			}
		}
	}

	return report, nil
}

func (v *Vault) record(opType, key string, success bool) {
	if v.recorder == nil {
		return
	}
	v.recorder.Record(opType, key, success)
}
