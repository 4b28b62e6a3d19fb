package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	listMeta     []string
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault entries",
	Long: `List the keys, timestamps, and metadata of vault entries.

Listing reads only the encrypted index; entry payloads are never decrypted.
Metadata filters are exact-match and may be repeated.

Example:
  memvault list
  memvault list --category goals
  memvault list --meta project=apollo --meta status=active
  memvault list --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func init() {
	listCmd.Flags().StringArrayVar(&listMeta, "meta", nil, "metadata filter as key=value (repeatable)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "shorthand for --meta category=<name>")
}

func runList() error {
	filter, err := parseMetadata(listMeta, listCategory)
	if err != nil {
		return err
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	summaries := v.List(filter)

	if format == "json" {
		return printJSON(os.Stdout, summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No entries found")
		return nil
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Key,
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.UpdatedAt.Format("2006-01-02 15:04"),
			formatMetadata(s.Metadata),
		})
	}
	return printTable(os.Stdout, []string{"KEY", "CREATED", "UPDATED", "METADATA"}, rows)
}
