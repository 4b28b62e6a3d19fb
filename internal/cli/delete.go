package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete an entry from the vault",
	Long: `Delete the entry stored under a key.

Removes both the encrypted entry file and its index record. Deleting a key
that does not exist is not an error.

Example:
  memvault rm old-note
  memvault rm old-note --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(args[0])
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "skip confirmation")
}

func runDelete(key string) error {
	if !rmForce {
		confirmed, err := PromptConfirm(fmt.Sprintf("Delete entry '%s'?", key), false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted")
			return nil
		}
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	deleted, err := v.Delete(key)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if deleted {
		fmt.Printf("✓ Deleted '%s'\n", key)
	} else {
		fmt.Printf("Entry '%s' not found, nothing deleted\n", key)
	}
	return nil
}
