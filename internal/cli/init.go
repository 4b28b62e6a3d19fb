package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault",
	Long: `Initialize a new encrypted vault in the vault directory.

You will be prompted for a password; the encryption key is derived from it
deterministically, so the same password always opens the same vault. Use
'memvault export-key' afterwards if you want a raw-key backup.

Example:
  memvault init
  memvault init --vault ~/vaults/personal`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	if _, err := os.Stat(vaultDir); err == nil {
		entries, err := os.ReadDir(vaultDir)
		if err == nil && len(entries) > 0 {
			return fmt.Errorf("vault directory %s is not empty", vaultDir)
		}
	}

	password, err := PromptPasswordConfirm("New vault password: ")
	if err != nil {
		return err
	}

	v, err := vault.Open(vaultDir, vault.Options{Password: password})
	if err != nil {
		return fmt.Errorf("failed to initialize vault: %w", err)
	}
	defer v.Close()

	fmt.Printf("✓ Vault initialized at %s\n", vaultDir)
	return nil
}
