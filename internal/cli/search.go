package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entry contents",
	Long: `Search the decrypted contents of every entry for a query string.

Matching is case-insensitive substring matching; results are ranked by how
often the query occurs in each value. Because there is no plaintext index,
search decrypts every entry and its cost grows linearly with vault size.

Example:
  memvault search apple
  memvault search "beta launch" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(args[0])
	},
}

func runSearch(query string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	results := v.Search(query)

	if format == "json" {
		return printJSON(os.Stdout, results)
	}

	if len(results) == 0 {
		fmt.Println("No matches found")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		preview, err := renderValue(r.Value)
		if err != nil {
			return err
		}
		if len(preview) > 60 {
			preview = preview[:57] + "..."
		}
		rows = append(rows, []string{r.Key, strconv.Itoa(r.Relevance), preview})
	}
	return printTable(os.Stdout, []string{"KEY", "RELEVANCE", "VALUE"}, rows)
}
