package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vault statistics",
	Long: `Show entry count, total encrypted size on disk, and vault age.

Example:
  memvault stats
  memvault stats --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

func runStats() error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	stats := v.Stats()

	if format == "json" {
		return printJSON(os.Stdout, stats)
	}

	fmt.Printf("Vault:         %s\n", stats.VaultPath)
	fmt.Printf("Entries:       %d\n", stats.TotalEntries)
	fmt.Printf("Total size:    %d bytes\n", stats.TotalSizeBytes)
	fmt.Printf("Created:       %s\n", stats.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
