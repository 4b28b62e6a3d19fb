package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/audit"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the operation audit log",
	Long: `Show recent vault operations, newest first.

Entry keys appear as truncated digests so the audit log never reveals the
encrypted catalog.

Example:
  memvault audit
  memvault audit -n 20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit()
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "maximum operations to show (0 for all)")
}

func runAudit() error {
	logStore, err := audit.Open(vaultDir)
	if err != nil {
		return err
	}
	defer logStore.Close()

	ops, err := logStore.Recent(auditLimit)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(os.Stdout, ops)
	}

	if len(ops) == 0 {
		fmt.Println("No operations recorded")
		return nil
	}

	rows := make([][]string, 0, len(ops))
	for _, op := range ops {
		status := "ok"
		if !op.Success {
			status = "failed"
		}
		rows = append(rows, []string{
			op.Timestamp.Format("2006-01-02 15:04:05"),
			op.Type,
			op.KeyDigest,
			status,
		})
	}
	return printTable(os.Stdout, []string{"TIME", "OPERATION", "KEY", "STATUS"}, rows)
}
