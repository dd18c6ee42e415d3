package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ergut/mcp-logseq/internal/config"
	"github.com/ergut/mcp-logseq/internal/logger"
)

var (
	appConfig *config.Config
	debugFlag bool
	Version   = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "mcp-logseq",
	Short:   "MCP server for Logseq",
	Version: Version,
	Long: `mcp-logseq bridges LLM clients to a local Logseq graph.

It exposes Logseq's HTTP API as Model Context Protocol tools: DSL
queries, full-text search, and page and block management. Enable the
HTTP APIs server in Logseq (Settings > Features) and provide its
authorization token via LOGSEQ_API_TOKEN or 'mcp-logseq config set'.`,
}

func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initAppConfig)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func initAppConfig() {
	// The config command manages the file itself and must work without one
	if len(os.Args) > 1 && os.Args[1] == "config" {
		return
	}

	var err error
	appConfig, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if debugFlag || appConfig.Debug {
		logger.SetDebugMode(true)
		logger.Debug("Configuration loaded from: %s", func() string {
			path, _ := config.GetConfigPath()
			return path
		}())
		logger.Debug("Logseq API URL: %s", appConfig.APIURL)
		logger.Debug("Verify SSL: %v", appConfig.VerifySSL)
		logger.Debug("Request timeout: %s", appConfig.Timeout())
	}
}
