package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ergut/mcp-logseq/internal/constants"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
)

// Config holds the connection settings for the local Logseq HTTP API.
// It is passed explicitly into the client and servers; there is no
// process-global client state.
type Config struct {
	APIURL         string `json:"api_url"`
	APIToken       string `json:"api_token,omitempty"`
	VerifySSL      bool   `json:"verify_ssl"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Debug          bool   `json:"debug"`
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		APIURL:         constants.DefaultAPIURL,
		APIToken:       "",
		VerifySSL:      false,
		TimeoutSeconds: constants.DefaultTimeoutSeconds,
		Debug:          false,
	}
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "mcp-logseq", "config.json"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := getDefaultConfig()

	// Missing config file is fine; defaults plus the environment are
	// enough to run.
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fill defaults for fields the file left empty
	if cfg.APIURL == "" {
		cfg.APIURL = constants.DefaultAPIURL
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = constants.DefaultTimeoutSeconds
	}

	// The environment wins over the file for the token
	if token := os.Getenv("LOGSEQ_API_TOKEN"); token != "" {
		cfg.APIToken = token
	}

	return &cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold the API token, so keep it private
	if err := os.WriteFile(configPath, data, constants.ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Timeout returns the fixed per-request timeout for calls to the
// Logseq API.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return constants.DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks that the configuration is usable for talking to
// Logseq. Called before serving, so a missing token fails fast instead
// of on the first tool call.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return interrors.ErrMissingAPIToken
	}
	return nil
}
