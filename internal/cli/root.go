// Package cli implements the memvault command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/config"
)

var (
	cfgFile  string
	vaultDir string
	format   string
	verbose  bool
	cfg      *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memvault",
	Short: "A local encrypted key-value vault",
	Long: `Memvault is a local, single-user encrypted vault for sensitive notes,
goals, preferences, and other private records. Every value is stored as an
authenticated AES-256-GCM blob, one file per entry, catalogued by a single
encrypted index. Nothing ever leaves the vault directory.

Features:
- AES-256-GCM encryption with PBKDF2 key derivation
- Per-entry files plus an encrypted metadata index
- Metadata filtering without decrypting entry payloads
- Full-content search over decrypted entries
- Operation audit log and index/entry consistency checks`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if vaultDir == "" {
			vaultDir = cfg.VaultDir
		}
		if format == "" {
			format = cfg.OutputFormat
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/memvault/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault", "", "vault directory")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "output format (table|json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add all subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportKeyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(auditCmd)
}
