// Package config handles configuration management for the vault CLI.
// It provides functionality to load, save, and manage application
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	VaultDir     string        `yaml:"vault_dir"`
	OutputFormat string        `yaml:"output_format"`
	ClipboardTTL time.Duration `yaml:"clipboard_ttl"`
	AuditEnabled bool          `yaml:"audit_enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		VaultDir:     filepath.Join(home, ".local", "share", "memvault"),
		OutputFormat: "table",
		ClipboardTTL: 30 * time.Second,
		AuditEnabled: true,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "memvault", "config.yaml")
}

// Load loads configuration from file or returns the default. A missing file
// is created with defaults so the user has something to edit.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(configPath)

	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		if err := Save(cfg, cleanPath); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to file.
func Save(cfg *Config, configPath string) error {
	cleanPath := filepath.Clean(configPath)

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
