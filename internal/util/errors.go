// Package util provides shared helpers for the CLI: exit codes and error
// handling.
package util

import (
	"errors"
	"fmt"
	"os"

	"github.com/memvault/memvault/internal/vault"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitInvalidInput = 2
	ExitVaultLocked  = 3
	ExitIntegrityErr = 4
)

// ExitWithCode exits the program with the specified code and message.
func ExitWithCode(code int, format string, args ...interface{}) {
	if format != "" {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	os.Exit(code)
}

// HandleError maps engine errors to exit codes and terminates.
func HandleError(err error, context string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, vault.ErrVaultLocked):
		ExitWithCode(ExitVaultLocked, "Error: %s%v", prefix(context), err)
	case errors.Is(err, vault.ErrDecryptionFailed), errors.Is(err, vault.ErrMalformedIndex):
		ExitWithCode(ExitIntegrityErr, "Error: %s%v\nRun 'memvault verify' to diagnose issues.", prefix(context), err)
	case errors.Is(err, vault.ErrNoKeySource), errors.Is(err, vault.ErrInvalidKeySize):
		ExitWithCode(ExitInvalidInput, "Error: %s%v", prefix(context), err)
	default:
		ExitWithCode(ExitError, "Error: %s%v", prefix(context), err)
	}
}

func prefix(context string) string {
	if context == "" {
		return ""
	}
	return context + " - "
}

// WrapError wraps an error with additional context.
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
