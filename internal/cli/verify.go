package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/util"
	"github.com/memvault/memvault/internal/vault"
)

var (
	verifyRepair        bool
	verifyRemoveOrphans bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check index/entry consistency",
	Long: `Reconcile the encrypted index against the entry files on disk.

Reports index entries whose file is missing (dangling), entries whose file
exists but fails authentication (undecryptable), and entry files no index
record references (orphans). With --repair, dangling index entries are
dropped; --remove-orphans additionally deletes orphan files. Undecryptable
entries are never removed automatically.

Example:
  memvault verify
  memvault verify --repair --remove-orphans`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify()
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyRepair, "repair", false, "drop dangling index entries")
	verifyCmd.Flags().BoolVar(&verifyRemoveOrphans, "remove-orphans", false, "delete unreferenced entry files (implies --repair)")
}

func runVerify() error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	var report *vault.VerifyReport
	if verifyRepair || verifyRemoveOrphans {
		report, err = v.Repair(verifyRemoveOrphans)
	} else {
		report, err = v.Verify()
	}
	if err != nil {
		return err
	}

	if report.Clean() {
		fmt.Println("✓ Vault is consistent")
		return nil
	}

	printProblems("Dangling index entries (file missing)", report.Dangling)
	printProblems("Undecryptable entries", report.Undecryptable)
	printProblems("Orphan entry files", report.Orphans)

	if verifyRepair || verifyRemoveOrphans {
		fmt.Println("Repair applied; re-run 'memvault verify' to confirm")
		return nil
	}

	// Release the lock before exiting; the deferred call is idempotent.
	closeVault()
	os.Exit(util.ExitIntegrityErr)
	return nil
}

func printProblems(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
