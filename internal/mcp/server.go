package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ergut/mcp-logseq/internal/config"
	"github.com/ergut/mcp-logseq/internal/constants"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
	"github.com/ergut/mcp-logseq/internal/logger"
	"github.com/ergut/mcp-logseq/internal/logseq"
	"github.com/ergut/mcp-logseq/internal/markdown"
	"github.com/ergut/mcp-logseq/internal/results"
)

// LogseqServer exposes the Logseq graph to MCP hosts. Each tool call is
// independent and stateless: it performs its Logseq API calls and
// returns a single formatted text block. Failures past argument
// validation are converted to text responses at this boundary so the
// host always receives a response, never an unhandled fault.
type LogseqServer struct {
	cfg       *config.Config
	client    *logseq.Client
	mcpServer *server.MCPServer
}

func NewLogseqServer(cfg *config.Config, client *logseq.Client, version string) *LogseqServer {
	s := &LogseqServer{
		cfg:    cfg,
		client: client,
	}

	s.mcpServer = server.NewMCPServer(
		"mcp-logseq",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

func (s *LogseqServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *LogseqServer) registerTools() {
	queryTool := mcp.NewTool("query",
		mcp.WithDescription("Execute a Logseq DSL query, e.g. (page-property type customer) or (task TODO)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The DSL query to execute"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to display (default: 100)"),
		),
		mcp.WithString("result_type",
			mcp.Description("Filter results by type (default: all)"),
			mcp.Enum("pages_only", "blocks_only", "all"),
		),
	)
	s.mcpServer.AddTool(queryTool, s.handleQuery)

	findPagesTool := mcp.NewTool("find_pages_by_property",
		mcp.WithDescription("Find all pages that have a specific property, optionally matching a value"),
		mcp.WithString("property_name",
			mcp.Required(),
			mcp.Description("Name of the property to search for"),
		),
		mcp.WithString("property_value",
			mcp.Description("Value the property must equal (optional; any value matches when omitted)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of pages to display (default: 100)"),
		),
	)
	s.mcpServer.AddTool(findPagesTool, s.handleFindPagesByProperty)

	searchTool := mcp.NewTool("search",
		mcp.WithDescription("Search for content across Logseq pages and blocks"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 20)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearch)

	listPagesTool := mcp.NewTool("list_pages",
		mcp.WithDescription("Lists all pages in the Logseq graph"),
		mcp.WithBoolean("include_journals",
			mcp.Description("Whether to include journal/daily notes in the list (default: false)"),
		),
	)
	s.mcpServer.AddTool(listPagesTool, s.handleListPages)

	getPageTool := mcp.NewTool("get_page_content",
		mcp.WithDescription("Get the content of a specific page from Logseq"),
		mcp.WithString("page_name",
			mcp.Required(),
			mcp.Description("Name of the page to retrieve"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default: text)"),
			mcp.Enum("text", "json"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum block nesting depth to display (default: unlimited)"),
		),
	)
	s.mcpServer.AddTool(getPageTool, s.handleGetPageContent)

	createPageTool := mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page in Logseq with optional markdown content and properties"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the new page"),
		),
		mcp.WithString("content",
			mcp.Description("Markdown content of the new page; bullets nest by indentation, a leading frontmatter section sets properties"),
		),
		mcp.WithObject("properties",
			mcp.Description("Page-level properties as key/value pairs"),
		),
	)
	s.mcpServer.AddTool(createPageTool, s.handleCreatePage)

	updatePageTool := mcp.NewTool("update_page",
		mcp.WithDescription("Update a page in Logseq by appending or replacing its content"),
		mcp.WithString("page_name",
			mcp.Required(),
			mcp.Description("Name of the page to update"),
		),
		mcp.WithString("content",
			mcp.Description("Markdown content to write"),
		),
		mcp.WithObject("properties",
			mcp.Description("Page-level properties to set"),
		),
		mcp.WithString("mode",
			mcp.Description("How to treat existing content (default: append)"),
			mcp.Enum("append", "replace"),
		),
	)
	s.mcpServer.AddTool(updatePageTool, s.handleUpdatePage)

	deletePageTool := mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page from Logseq"),
		mcp.WithString("page_name",
			mcp.Required(),
			mcp.Description("Name of the page to delete"),
		),
	)
	s.mcpServer.AddTool(deletePageTool, s.handleDeletePage)

	deleteBlockTool := mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block from Logseq by UUID"),
		mcp.WithString("block_uuid",
			mcp.Required(),
			mcp.Description("UUID of the block to delete"),
		),
	)
	s.mcpServer.AddTool(deleteBlockTool, s.handleDeleteBlock)

	updateBlockTool := mcp.NewTool("update_block",
		mcp.WithDescription("Replace the content of a block by UUID"),
		mcp.WithString("block_uuid",
			mcp.Required(),
			mcp.Description("UUID of the block to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New content for the block"),
		),
	)
	s.mcpServer.AddTool(updateBlockTool, s.handleUpdateBlock)

	insertBlockTool := mcp.NewTool("insert_block",
		mcp.WithDescription("Insert a new block relative to an existing block"),
		mcp.WithString("parent_block_uuid",
			mcp.Required(),
			mcp.Description("UUID of the reference block"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Content of the new block"),
		),
		mcp.WithBoolean("sibling",
			mcp.Description("Insert as a sibling instead of a child (default: false)"),
		),
	)
	s.mcpServer.AddTool(insertBlockTool, s.handleInsertBlock)

	renamePageTool := mcp.NewTool("rename_page",
		mcp.WithDescription("Rename a page in Logseq, updating references to it"),
		mcp.WithString("old_name",
			mcp.Required(),
			mcp.Description("Current name of the page"),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("New name for the page"),
		),
	)
	s.mcpServer.AddTool(renamePageTool, s.handleRenamePage)

	namespacePagesTool := mcp.NewTool("get_pages_from_namespace",
		mcp.WithDescription("List the pages directly under a namespace, e.g. Customer/"),
		mcp.WithString("namespace",
			mcp.Required(),
			mcp.Description("Namespace to list pages from"),
		),
	)
	s.mcpServer.AddTool(namespacePagesTool, s.handleGetPagesFromNamespace)

	namespaceTreeTool := mcp.NewTool("get_pages_tree_from_namespace",
		mcp.WithDescription("Get the hierarchical page tree of a namespace"),
		mcp.WithString("namespace",
			mcp.Required(),
			mcp.Description("Namespace to get the tree for"),
		),
	)
	s.mcpServer.AddTool(namespaceTreeTool, s.handleGetPagesTreeFromNamespace)

	backlinksTool := mcp.NewTool("get_page_backlinks",
		mcp.WithDescription("Get the backlinks (linked references) of a page"),
		mcp.WithString("page_name",
			mcp.Required(),
			mcp.Description("Name of the page to find backlinks for"),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Include the content of referencing blocks (default: true)"),
		),
	)
	s.mcpServer.AddTool(backlinksTool, s.handleGetPageBacklinks)
}

// queryFailure renders a remote query failure as a single text
// response with the cause and a pointer to the query docs.
func queryFailure(err error) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf(
		"Query failed: %v\n\nCheck your query syntax: %s", err, constants.QueryDocsURL))
}

// Tool handlers

func (s *LogseqServer) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: query")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}
	if strings.TrimSpace(query) == "" {
		return nil, interrors.ErrEmptyQuery
	}

	limit := request.GetInt("limit", constants.DefaultQueryLimit)
	resultType, err := results.ParseType(request.GetString("result_type", "all"))
	if err != nil {
		return nil, err
	}

	items, err := s.client.QueryDSL(ctx, query)
	if err != nil {
		logger.Error("Query failed: %v", err)
		return queryFailure(err), nil
	}

	return mcp.NewToolResultText(results.FormatQuery(query, items, resultType, limit)), nil
}

func (s *LogseqServer) handleFindPagesByProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: find_pages_by_property")

	name, err := request.RequireString("property_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'property_name': %w", err)
	}
	if strings.TrimSpace(name) == "" {
		return nil, interrors.ErrMissingPropertyName
	}

	value := request.GetString("property_value", "")
	limit := request.GetInt("limit", constants.DefaultQueryLimit)

	query := logseq.PagePropertyQuery(name, value)
	items, err := s.client.QueryDSL(ctx, query)
	if err != nil {
		logger.Error("Property search failed: %v", err)
		return queryFailure(err), nil
	}

	return mcp.NewToolResultText(results.FormatPropertySearch(name, value, items, limit)), nil
}

func (s *LogseqServer) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}

	limit := request.GetInt("limit", constants.DefaultSearchLimit)

	resp, err := s.client.Search(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		logger.Error("Search failed: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSearchResults(query, resp)), nil
}

func formatSearchResults(query string, resp *logseq.SearchResponse) string {
	if resp == nil || (len(resp.Blocks) == 0 && len(resp.Pages) == 0 && len(resp.PagesContent) == 0) {
		return fmt.Sprintf("No search results found for '%s'", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Search Results for '%s'\n", query)

	if len(resp.Blocks) > 0 {
		fmt.Fprintf(&b, "\nContent Blocks (%d found):\n", len(resp.Blocks))
		for _, block := range resp.Blocks {
			content, _ := block["block/content"].(string)
			fmt.Fprintf(&b, "- %s\n", truncate(content, constants.SnippetPreviewLength))
		}
	}

	if len(resp.Pages) > 0 {
		fmt.Fprintf(&b, "\nMatching Pages (%d found):\n", len(resp.Pages))
		for _, page := range resp.Pages {
			fmt.Fprintf(&b, "- %s\n", page)
		}
	}

	if len(resp.PagesContent) > 0 {
		fmt.Fprintf(&b, "\nPage Content Matches (%d found):\n", len(resp.PagesContent))
		for _, item := range resp.PagesContent {
			snippet, _ := item["block/snippet"].(string)
			fmt.Fprintf(&b, "- %s\n", truncate(snippet, constants.SnippetPreviewLength))
		}
	}

	total := len(resp.Blocks) + len(resp.Pages) + len(resp.PagesContent)
	fmt.Fprintf(&b, "\nTotal results found: %d", total)
	if resp.HasMore {
		b.WriteString("\n(more results available, raise the limit to see them)")
	}
	return b.String()
}

func (s *LogseqServer) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_pages")

	includeJournals := request.GetBool("include_journals", false)

	pages, err := s.client.ListPages(ctx)
	if err != nil {
		logger.Error("Failed to list pages: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to list pages: %v", err)), nil
	}

	var lines []string
	for _, page := range pages {
		isJournal, _ := page["journal?"].(bool)
		if isJournal && !includeJournals {
			continue
		}
		name := results.DisplayName(page)
		if name == "" {
			name = "<unknown>"
		}
		line := "- " + name
		if isJournal {
			line += " [journal]"
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)

	journalNote := " (excluding journal pages)"
	if includeJournals {
		journalNote = " (including journal pages)"
	}

	text := "Logseq Pages:\n\n" + strings.Join(lines, "\n") +
		fmt.Sprintf("\nTotal pages: %d%s", len(lines), journalNote)
	return mcp.NewToolResultText(text), nil
}

func (s *LogseqServer) handleGetPageContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_page_content")

	pageName, err := request.RequireString("page_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'page_name': %w", err)
	}

	format := request.GetString("format", "text")
	maxDepth := request.GetInt("max_depth", -1)

	content, err := s.client.GetPageContent(ctx, pageName)
	if err != nil {
		logger.Error("Failed to get page content: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to get page content for '%s': %v", pageName, err)), nil
	}
	if content == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Page '%s' not found.", pageName)), nil
	}

	if format == "json" {
		data, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("Failed to encode page content: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	return mcp.NewToolResultText(formatPageContent(pageName, content, maxDepth)), nil
}

func formatPageContent(pageName string, content *logseq.PageContent, maxDepth int) string {
	var b strings.Builder

	title := pageName
	if name, _ := content.Page["originalName"].(string); name != "" {
		title = name
	}
	fmt.Fprintf(&b, "# %s\n", title)

	if props, _ := content.Page["properties"].(map[string]interface{}); len(props) > 0 {
		keys := make([]string, 0, len(props))
		for key := range props {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		b.WriteString("\nProperties:\n")
		for _, key := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", key, props[key])
		}
	}

	if len(content.Blocks) == 0 {
		b.WriteString("\nNo content blocks found.")
		return b.String()
	}

	b.WriteString("\nContent:\n")
	for _, block := range content.Blocks {
		writeBlockTree(&b, block, 0, maxDepth)
	}
	return strings.TrimRight(b.String(), "\n")
}

// writeBlockTree renders a block subtree, two spaces of indent per
// level. maxDepth < 0 means unlimited.
func writeBlockTree(b *strings.Builder, block logseq.Block, depth, maxDepth int) {
	if maxDepth >= 0 && depth > maxDepth {
		return
	}
	if strings.TrimSpace(block.Content) != "" {
		fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), block.Content)
	}
	for _, child := range block.Children {
		writeBlockTree(b, child, depth+1, maxDepth)
	}
}

// getProperties reads the optional object-valued "properties" argument.
func getProperties(request mcp.CallToolRequest) map[string]interface{} {
	args := request.GetArguments()
	props, _ := args["properties"].(map[string]interface{})
	return props
}

func (s *LogseqServer) handleCreatePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: create_page")

	title, err := request.RequireString("title")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'title': %w", err)
	}

	content := request.GetString("content", "")
	blocks, frontmatter := markdown.Parse(content)

	// Explicit properties win over frontmatter
	properties := frontmatter
	if explicit := getProperties(request); len(explicit) > 0 {
		if properties == nil {
			properties = map[string]interface{}{}
		}
		for key, value := range explicit {
			properties[key] = value
		}
	}

	if err := s.client.CreatePage(ctx, title, blocks, properties); err != nil {
		logger.Error("Failed to create page: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to create page '%s': %v", title, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully created page '%s'", title)), nil
}

func (s *LogseqServer) handleUpdatePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: update_page")

	pageName, err := request.RequireString("page_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'page_name': %w", err)
	}

	content := request.GetString("content", "")
	properties := getProperties(request)
	mode := logseq.UpdateMode(request.GetString("mode", string(logseq.ModeAppend)))

	if content == "" && len(properties) == 0 {
		return mcp.NewToolResultText("Error: Either 'content' or 'properties' must be provided"), nil
	}

	blocks, frontmatter := markdown.Parse(content)
	if len(frontmatter) > 0 {
		if properties == nil {
			properties = map[string]interface{}{}
		}
		for key, value := range frontmatter {
			if _, ok := properties[key]; !ok {
				properties[key] = value
			}
		}
	}

	if err := s.client.UpdatePage(ctx, pageName, blocks, properties, mode); err != nil {
		if errors.Is(err, interrors.ErrPageNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("Error: Page '%s' does not exist", pageName)), nil
		}
		logger.Error("Failed to update page: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to update page '%s': %v", pageName, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully updated page '%s'\nMode: %s", pageName, mode)), nil
}

func (s *LogseqServer) handleDeletePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: delete_page")

	pageName, err := request.RequireString("page_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'page_name': %w", err)
	}

	if err := s.client.DeletePage(ctx, pageName); err != nil {
		if errors.Is(err, interrors.ErrPageNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("Error: Page '%s' does not exist", pageName)), nil
		}
		logger.Error("Failed to delete page: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to delete page '%s': %v", pageName, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted page '%s'", pageName)), nil
}

func (s *LogseqServer) handleDeleteBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: delete_block")

	uuid, err := request.RequireString("block_uuid")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'block_uuid': %w", err)
	}

	if err := s.client.RemoveBlock(ctx, uuid); err != nil {
		logger.Error("Failed to delete block: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to delete block '%s': %v", uuid, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted block '%s'", uuid)), nil
}

func (s *LogseqServer) handleUpdateBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: update_block")

	uuid, err := request.RequireString("block_uuid")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'block_uuid': %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}

	if err := s.client.UpdateBlock(ctx, uuid, content); err != nil {
		logger.Error("Failed to update block: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to update block '%s': %v", uuid, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully updated block '%s'", uuid)), nil
}

func (s *LogseqServer) handleInsertBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: insert_block")

	parentUUID, err := request.RequireString("parent_block_uuid")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'parent_block_uuid': %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}
	sibling := request.GetBool("sibling", false)

	block, err := s.client.InsertBlock(ctx, parentUUID, content, sibling, nil)
	if err != nil {
		logger.Error("Failed to insert block: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to insert block under '%s': %v", parentUUID, err)), nil
	}

	relation := "child of"
	if sibling {
		relation = "sibling of"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully inserted block '%s' as %s '%s'", block.UUID, relation, parentUUID)), nil
}

func (s *LogseqServer) handleRenamePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: rename_page")

	oldName, err := request.RequireString("old_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'old_name': %w", err)
	}
	newName, err := request.RequireString("new_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'new_name': %w", err)
	}

	if err := s.client.RenamePage(ctx, oldName, newName); err != nil {
		if errors.Is(err, interrors.ErrPageNotFound) || errors.Is(err, interrors.ErrPageExists) {
			return mcp.NewToolResultText(fmt.Sprintf("Error: %v", err)), nil
		}
		logger.Error("Failed to rename page: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to rename page '%s': %v", oldName, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully renamed page '%s' to '%s'", oldName, newName)), nil
}

func (s *LogseqServer) handleGetPagesFromNamespace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_pages_from_namespace")

	namespace, err := request.RequireString("namespace")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'namespace': %w", err)
	}

	pages, err := s.client.GetPagesFromNamespace(ctx, namespace)
	if err != nil {
		logger.Error("Failed to get namespace pages: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to get pages from namespace '%s': %v", namespace, err)), nil
	}
	if len(pages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No pages found in namespace '%s'", namespace)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pages in namespace '%s':\n\n", namespace)
	for _, page := range pages {
		fmt.Fprintf(&b, "- %s\n", results.DisplayName(page))
	}
	fmt.Fprintf(&b, "\nTotal: %d pages", len(pages))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *LogseqServer) handleGetPagesTreeFromNamespace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_pages_tree_from_namespace")

	namespace, err := request.RequireString("namespace")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'namespace': %w", err)
	}

	tree, err := s.client.GetPagesTreeFromNamespace(ctx, namespace)
	if err != nil {
		logger.Error("Failed to get namespace tree: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to get page tree from namespace '%s': %v", namespace, err)), nil
	}
	if len(tree) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No pages found in namespace '%s'", namespace)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Page tree for namespace '%s':\n\n", namespace)
	total := 0
	for _, page := range tree {
		writeNamespaceTree(&b, page, 0, &total)
	}
	fmt.Fprintf(&b, "\nTotal: %d pages", total)
	return mcp.NewToolResultText(b.String()), nil
}

func writeNamespaceTree(b *strings.Builder, page logseq.NamespacePage, depth int, total *int) {
	name := page.OriginalName
	if name == "" {
		name = page.Name
	}
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), name)
	*total++
	for _, child := range page.Children {
		writeNamespaceTree(b, child, depth+1, total)
	}
}

func (s *LogseqServer) handleGetPageBacklinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_page_backlinks")

	pageName, err := request.RequireString("page_name")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'page_name': %w", err)
	}
	includeContent := request.GetBool("include_content", true)

	refs, err := s.client.GetPageLinkedReferences(ctx, pageName)
	if err != nil {
		logger.Error("Failed to get backlinks: %v", err)
		return mcp.NewToolResultText(fmt.Sprintf("Failed to get backlinks for '%s': %v", pageName, err)), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No backlinks found for page '%s'", pageName)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Backlinks for '%s'\n", pageName)

	totalRefs := 0
	for _, ref := range refs {
		name := results.DisplayName(ref.Page)
		count := len(ref.Blocks)
		totalRefs += count
		fmt.Fprintf(&b, "\n## %s (%s)\n", name, pluralize(count, "reference"))
		if includeContent {
			for _, block := range ref.Blocks {
				fmt.Fprintf(&b, "- %s\n", truncate(block.Content, constants.SnippetPreviewLength))
			}
		}
	}

	fmt.Fprintf(&b, "\nTotal: %d pages, %d references", len(refs), totalRefs)
	return mcp.NewToolResultText(b.String()), nil
}

func pluralize(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}

// Helper function to truncate strings
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
