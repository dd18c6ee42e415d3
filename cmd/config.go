package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ergut/mcp-logseq/internal/config"
	"github.com/ergut/mcp-logseq/internal/constants"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcp-logseq configuration",
	Long:  `View and manage mcp-logseq configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current mcp-logseq configuration settings.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Available keys:
  - api-url: Logseq HTTP API base URL
  - api-token: Logseq HTTP API authorization token
  - verify-ssl: Verify TLS certificates when calling the API (true/false)
  - timeout: Request timeout in seconds
  - debug: Enable/disable debug logging (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	token := "(not set)"
	if cfg.APIToken != "" {
		token = "(set)"
	}

	fmt.Println("=== mcp-logseq Configuration ===")
	fmt.Printf("Config file:  %s\n", configPath)
	fmt.Printf("api-url:      %s\n", cfg.APIURL)
	fmt.Printf("api-token:    %s\n", token)
	fmt.Printf("verify-ssl:   %v\n", cfg.VerifySSL)
	fmt.Printf("timeout:      %d\n", cfg.TimeoutSeconds)
	fmt.Printf("debug:        %v\n", cfg.Debug)

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)
	return nil
}

func parseBool(value string) (bool, error) {
	switch value {
	case constants.BoolTrue, constants.BoolOne, constants.BoolYes:
		return true, nil
	case constants.BoolFalse, constants.BoolZero, constants.BoolNo:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", interrors.ErrInvalidBoolean, value)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch key {
	case "api-url":
		cfg.APIURL = value
	case "api-token":
		cfg.APIToken = value
	case "verify-ssl":
		verify, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.VerifySSL = verify
	case "timeout":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("invalid timeout value (use a positive number of seconds): %s", value)
		}
		cfg.TimeoutSeconds = seconds
	case "debug":
		debug, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Debug = debug
	default:
		return fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if key == "api-token" {
		fmt.Printf("Configuration updated: %s\n", key)
	} else {
		fmt.Printf("Configuration updated: %s = %s\n", key, value)
	}
	return nil
}
