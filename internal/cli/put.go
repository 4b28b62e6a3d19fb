package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	putMeta     []string
	putCategory string
	putFromFile string
)

var putCmd = &cobra.Command{
	Use:   "put <key> [value]",
	Short: "Store a value in the vault",
	Long: `Store a value under a key, creating the entry or fully replacing it.

The value may be given as an argument, read from a file with --file, or
piped on stdin. Values that parse as JSON are stored structured; anything
else is stored as a plain string. Metadata fields are attached with
repeated --meta flags; --category is shorthand for --meta category=<name>.

Example:
  memvault put launch-goal "Ship the beta by June"
  memvault put q3-plan --file plan.json --category goals
  echo "private thought" | memvault put reflection-042 --category reflections`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPut(args)
	},
}

func init() {
	putCmd.Flags().StringArrayVar(&putMeta, "meta", nil, "metadata field as key=value (repeatable)")
	putCmd.Flags().StringVar(&putCategory, "category", "", "shorthand for --meta category=<name>")
	putCmd.Flags().StringVar(&putFromFile, "file", "", "read the value from a file")
}

func runPut(args []string) error {
	key := args[0]

	raw, err := readValue(args)
	if err != nil {
		return err
	}

	metadata, err := parseMetadata(putMeta, putCategory)
	if err != nil {
		return err
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	if err := v.Store(key, decodeValue(raw), metadata); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}

	fmt.Printf("✓ Stored '%s'\n", key)
	return nil
}

func readValue(args []string) (string, error) {
	switch {
	case putFromFile != "":
		data, err := os.ReadFile(putFromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read value file: %w", err)
		}
		return string(data), nil
	case len(args) == 2:
		return args[1], nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read value from stdin: %w", err)
		}
		value := strings.TrimRight(string(data), "\n")
		if value == "" {
			return "", fmt.Errorf("no value given: pass an argument, --file, or pipe stdin")
		}
		return value, nil
	}
}

// decodeValue keeps JSON values structured so search can match field names
// and exported values round-trip; everything else stays a plain string.
func decodeValue(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded interface{}
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return raw
}

func parseMetadata(pairs []string, category string) (map[string]string, error) {
	metadata := make(map[string]string)
	for _, pair := range pairs {
		k, v, found := strings.Cut(pair, "=")
		if !found || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[k] = v
	}
	if category != "" {
		metadata["category"] = category
	}
	return metadata, nil
}
