package userconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "rentalx"
	configFileName = "config.yaml"
)

// UserConfig represents the user's local configuration stored in ~/.config/rentalx/config.yaml
type UserConfig struct {
	APIURL       string `yaml:"api_url,omitempty"`
	SessionStore string `yaml:"session_store,omitempty"`
}

// Keys lists the settable keys in display order
var Keys = []string{"api_url", "session_store"}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// If config doesn't exist, return empty config
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// Get returns the value stored under key
func (c *UserConfig) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "session_store":
		return c.SessionStore, nil
	default:
		return "", fmt.Errorf("unknown config key '%s'", key)
	}
}

// Set updates the value stored under key. An empty value resets it to the default.
func (c *UserConfig) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = value
	case "session_store":
		c.SessionStore = value
	default:
		return fmt.Errorf("unknown config key '%s'", key)
	}
	return nil
}
