package cli

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/memvault/memvault/internal/audit"
	"github.com/memvault/memvault/internal/vault"
)

var keyFile string

// passwordEnvVar lets scripts supply the vault password non-interactively.
const passwordEnvVar = "MEMVAULT_PASSWORD"

func init() {
	rootCmd.PersistentFlags().StringVar(&keyFile, "key-file", "", "file holding a base64 raw key instead of a password")
}

// openVault opens the vault for a command, resolving key material from the
// --key-file flag, the MEMVAULT_PASSWORD environment variable, or an
// interactive prompt, in that order. The returned closer releases the lock
// and the audit log.
func openVault() (*vault.Vault, func(), error) {
	opts := vault.Options{}

	switch {
	case keyFile != "":
		raw, err := readKeyFile(keyFile)
		if err != nil {
			return nil, nil, err
		}
		opts.RawKey = raw
	case os.Getenv(passwordEnvVar) != "":
		opts.Password = os.Getenv(passwordEnvVar)
	default:
		password, err := PromptPassword("Vault password: ")
		if err != nil {
			return nil, nil, err
		}
		opts.Password = password
	}

	var auditLog *audit.Log
	if cfg.AuditEnabled {
		var err error
		auditLog, err = audit.Open(vaultDir)
		if err != nil {
			// The audit log is an observability aid; a broken one should
			// not make the vault itself unreachable.
			log.Printf("Warning: audit log unavailable: %v", err)
		} else {
			opts.Recorder = auditLog
		}
	}

	v, err := vault.Open(vaultDir, opts)
	if err != nil {
		if auditLog != nil {
			auditLog.Close()
		}
		return nil, nil, err
	}

	// Idempotent so commands can close explicitly before exiting while the
	// deferred call stays in place; an unreleased lock would shut every
	// later command out of the vault until the stale-lock age passes.
	var once sync.Once
	closer := func() {
		once.Do(func() {
			if err := v.Close(); err != nil {
				log.Printf("Warning: failed to close vault: %v", err)
			}
			if auditLog != nil {
				if err := auditLog.Close(); err != nil {
					log.Printf("Warning: failed to close audit log: %v", err)
				}
			}
		})
	}
	return v, closer, nil
}

func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key file: %w", err)
	}
	return raw, nil
}
