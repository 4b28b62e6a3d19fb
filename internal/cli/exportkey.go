package cli

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/vault"
)

var exportKeyCmd = &cobra.Command{
	Use:   "export-key",
	Short: "Export the raw encryption key",
	Long: `Export the vault's raw encryption key as base64 for backup.

Anyone holding this key can decrypt the entire vault. Store the export
somewhere at least as secure as the vault itself; it can later be supplied
via --key-file instead of a password.

Example:
  memvault export-key > vault.key
  memvault get launch-goal --key-file vault.key`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExportKey()
	},
}

func runExportKey() error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	key := v.ExportKey()
	defer vault.Zeroize(key)

	fmt.Println(base64.StdEncoding.EncodeToString(key))
	return nil
}
