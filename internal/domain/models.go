// Package domain defines the core data structures shared across the vault.
// It contains the entry records, index records, and result types exchanged
// between the storage engine and its callers.
package domain

import "time"

// Entry is the decrypted form of one vault record. The value is arbitrary
// JSON-serializable data; the engine never inspects its structure except
// during search's textual flattening.
type Entry struct {
	Key       string            `json:"key"`
	Value     interface{}       `json:"value"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IndexEntry is the metadata-only catalog record for one entry. It carries
// everything list() needs so that enumeration never decrypts entry payloads.
type IndexEntry struct {
	Key          string            `json:"key"`
	FileLocation string            `json:"file"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Metadata     map[string]string `json:"metadata"`
}

// EntrySummary is one row of a list() result.
type EntrySummary struct {
	Key       string            `json:"key"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata"`
}

// SearchResult pairs a decrypted value with its relevance score. Relevance
// is the number of case-insensitive occurrences of the query in the value's
// serialized text form.
type SearchResult struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	Relevance int         `json:"relevance"`
}

// Stats summarizes a vault's size and age.
type Stats struct {
	TotalEntries   int       `json:"total_entries"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
	VaultPath      string    `json:"vault_path"`
}

// Operation is one audit log record. The entry key is stored as a truncated
// digest so the audit log never holds the plaintext catalog.
type Operation struct {
	Type      string    `json:"type"`
	KeyDigest string    `json:"key_digest"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// Well-known metadata category values.
const (
	CategoryGoals         = "goals"
	CategoryReflections   = "reflections"
	CategoryPreferences   = "preferences"
	CategoryPrivate       = "private"
	CategoryKnowledge     = "knowledge"
	CategoryRelationships = "relationships"
)
