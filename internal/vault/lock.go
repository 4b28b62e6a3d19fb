package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	// ErrVaultLocked is returned when another process holds the vault lock.
	ErrVaultLocked = errors.New("vault: locked by another process")
	// ErrLockNotHeld is returned when releasing a lock that isn't held.
	ErrLockNotHeld = errors.New("vault: lock not held")
)

// lockFileName is the advisory lock file inside the vault directory.
const lockFileName = ".lock"

// staleLockAge is the age past which an abandoned lock file is reclaimed.
// A heuristic for dead processes that never released their lock.
const staleLockAge = 5 * time.Minute

// FileLock is a per-vault advisory lock. The engine holds it for its whole
// lifetime; two engine instances over the same directory must treat each
// other as untrusted concurrent writers, and the lock is what stops them.
type FileLock struct {
	path     string
	lockFile *os.File
	locked   bool
}

// NewFileLock creates an advisory lock for the given vault directory.
func NewFileLock(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, lockFileName)}
}

// Lock acquires the lock, retrying until the timeout expires.
func (fl *FileLock) Lock(timeout time.Duration) error {
	if fl.locked {
		return errors.New("vault: lock already held")
	}

	start := time.Now()
	for {
		file, err := os.OpenFile(fl.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fl.lockFile = file
			fl.locked = true

			if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
				fl.Unlock()
				return err
			}
			if err := platformLock(file); err != nil {
				fl.Unlock()
				return fmt.Errorf("%w: %v", ErrVaultLocked, err)
			}
			return nil
		}

		if time.Since(start) > timeout {
			return ErrVaultLocked
		}

		if fl.isStale() {
			os.Remove(fl.path)
			continue
		}

		time.Sleep(100 * time.Millisecond)
	}
}

// Unlock releases the lock and removes the lock file.
func (fl *FileLock) Unlock() error {
	if !fl.locked {
		return ErrLockNotHeld
	}

	var err error
	if fl.lockFile != nil {
		if unlockErr := platformUnlock(fl.lockFile); unlockErr != nil {
			err = unlockErr
		}
		if closeErr := fl.lockFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		fl.lockFile = nil
	}

	if removeErr := os.Remove(fl.path); removeErr != nil && err == nil {
		err = removeErr
	}

	fl.locked = false
	return err
}

// IsLocked reports whether this process currently holds the lock.
func (fl *FileLock) IsLocked() bool {
	return fl.locked
}

func (fl *FileLock) isStale() bool {
	info, err := os.Stat(fl.path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleLockAge
}
