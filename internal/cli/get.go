package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/clipboard"
)

var copyToClipboard bool

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Retrieve a value from the vault",
	Long: `Retrieve and decrypt the value stored under a key.

String values print as-is; structured values print as JSON. With --copy the
value goes to the clipboard instead and is cleared after the configured TTL.

Example:
  memvault get launch-goal
  memvault get api-token --copy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(args[0])
	},
}

func init() {
	getCmd.Flags().BoolVar(&copyToClipboard, "copy", false, "copy the value to clipboard instead of printing")
}

func runGet(key string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	value, err := v.Retrieve(key)
	if err != nil {
		return fmt.Errorf("failed to retrieve entry: %w", err)
	}
	if value == nil {
		return fmt.Errorf("entry '%s' not found", key)
	}

	text, err := renderValue(value)
	if err != nil {
		return err
	}

	if copyToClipboard {
		if !clipboard.IsAvailable() {
			return fmt.Errorf("clipboard not available")
		}
		if err := clipboard.CopyWithTimeout(text, cfg.ClipboardTTL); err != nil {
			return err
		}
		fmt.Printf("✓ Value for '%s' copied to clipboard (clears in %v)\n", key, cfg.ClipboardTTL)
		return nil
	}

	fmt.Println(text)
	return nil
}

func renderValue(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render value: %w", err)
	}
	return string(data), nil
}
