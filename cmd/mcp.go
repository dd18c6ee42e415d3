package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ergut/mcp-logseq/internal/logger"
	"github.com/ergut/mcp-logseq/internal/logseq"
	"github.com/ergut/mcp-logseq/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM integration",
	Long: `Start a Model Context Protocol (MCP) server that lets LLMs work with
your Logseq graph over stdio.

Tools (15 available):
- query: Execute Logseq DSL queries
- find_pages_by_property: Find pages by property name and value
- search: Full-text search across pages and blocks
- list_pages: List all pages in the graph
- get_page_content: Read a page with its block tree
- create_page: Create a page from markdown content
- update_page: Append to or replace a page's content
- delete_page: Delete a page
- delete_block / update_block / insert_block: Block-level edits
- rename_page: Rename a page, updating references
- get_pages_from_namespace / get_pages_tree_from_namespace: Namespace listing
- get_page_backlinks: Linked references of a page

To use with Claude Desktop, add this to your claude_desktop_config.json:
{
  "mcpServers": {
    "logseq": {
      "command": "mcp-logseq",
      "args": ["mcp"],
      "env": {
        "LOGSEQ_API_TOKEN": "your-token"
      }
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := appConfig.Validate(); err != nil {
		return err
	}

	logger.Info("Starting MCP server...")

	client := logseq.NewClient(appConfig)
	logseqServer := mcp.NewLogseqServer(appConfig, client, Version)
	mcpServer := logseqServer.GetMCPServer()

	// Serve on stdio; stdout carries the protocol, all logging is on stderr
	logger.Info("MCP server ready. Listening on stdio...")
	if err := server.ServeStdio(mcpServer); err != nil {
		if err.Error() != "EOF" {
			logger.Error("MCP server error: %v", err)
			return err
		}
	}

	logger.Info("MCP server shutting down")
	return nil
}
