// Package audit keeps an append-only log of vault operations in a bbolt
// database alongside the vault. Entry keys are stored as truncated SHA-256
// digests so the log never reveals the encrypted catalog's plaintext keys.
package audit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/memvault/memvault/internal/domain"
)

// DBFileName is the audit database file inside the vault directory.
const DBFileName = "audit.db"

// digestLen is the number of digest bytes kept per key (hex-encoded).
const digestLen = 8

var opsBucket = []byte("operations")

// Log is a bbolt-backed operation log. It implements vault.Recorder.
type Log struct {
	db *bbolt.DB
}

// Open opens (or creates) the audit database in the given vault directory.
func Open(dir string) (*Log, error) {
	db, err := bbolt.Open(filepath.Join(dir, DBFileName), 0o600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(opsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// KeyDigest returns the truncated hex digest under which a key is logged.
func KeyDigest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:digestLen])
}

// Record appends one operation. Audit failures are logged but never fail
// the vault operation they describe.
func (l *Log) Record(opType, key string, success bool) {
	op := domain.Operation{
		Type:      opType,
		KeyDigest: KeyDigest(key),
		Timestamp: time.Now().UTC(),
		Success:   success,
	}

	err := l.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(opsBucket)
		if bucket == nil {
			return fmt.Errorf("audit bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate audit sequence: %w", err)
		}

		seqKey := make([]byte, 8)
		binary.BigEndian.PutUint64(seqKey, seq)

		payload, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("failed to encode audit entry: %w", err)
		}
		return bucket.Put(seqKey, payload)
	})
	if err != nil {
		log.Printf("Warning: failed to record audit entry: %v", err)
	}
}

// Recent returns up to n operations, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) ([]domain.Operation, error) {
	var ops []domain.Operation
	err := l.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(opsBucket)
		if bucket == nil {
			return fmt.Errorf("audit bucket not found")
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(ops) >= n {
				break
			}
			var op domain.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to decode audit entry: %w", err)
			}
			ops = append(ops, op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}
