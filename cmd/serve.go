package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ergut/mcp-logseq/internal/api"
	"github.com/ergut/mcp-logseq/internal/logger"
	"github.com/ergut/mcp-logseq/internal/logseq"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start an HTTP gateway that exposes the Logseq tools as REST endpoints.

This allows integration with applications that consume HTTP APIs rather
than MCP. The server provides endpoints for:

- DSL queries and full-text search
- Page CRUD, rename, and backlinks
- Namespace listing
- Health and configuration info

Examples:
  mcp-logseq serve                            # Start on localhost:8080
  mcp-logseq serve --host 0.0.0.0 --port 3000 # All interfaces, port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the server to")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to bind the server to")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := appConfig.Validate(); err != nil {
		return err
	}

	logger.Info("Initializing HTTP API server...")

	client := logseq.NewClient(appConfig)
	apiServer := api.NewAPIServer(appConfig, client, Version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start(serveHost, servePort)
	}()

	fmt.Printf("Logseq HTTP gateway listening on http://%s:%d\n", serveHost, servePort)
	fmt.Printf("Health check: http://%s:%d/api/v1/health\n", serveHost, servePort)
	fmt.Printf("Press Ctrl+C to stop the server\n")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down gracefully...", sig)
		if err := apiServer.Stop(); err != nil {
			logger.Error("Error during server shutdown: %v", err)
			return err
		}
		logger.Info("Server stopped successfully")
		return nil
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error: %v", err)
			return err
		}
		return nil
	}
}
