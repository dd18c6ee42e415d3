package logseq

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ergut/mcp-logseq/internal/config"
	"github.com/ergut/mcp-logseq/internal/logger"
)

// Client talks to the local Logseq application's HTTP API. Every
// operation is a single POST to {base}/api with a JSON body naming the
// remote method and its argument array, authorized with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type apiRequest struct {
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
}

// Block is one node of a page's block tree as Logseq returns it.
type Block struct {
	UUID       string                 `json:"uuid"`
	Content    string                 `json:"content"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Children   []Block                `json:"children,omitempty"`
}

// PageContent bundles a page entity with its block tree.
type PageContent struct {
	Page   map[string]interface{} `json:"page"`
	Blocks []Block                `json:"blocks"`
}

// SearchResponse mirrors the shape of logseq.search results.
type SearchResponse struct {
	Blocks       []map[string]interface{} `json:"blocks"`
	Pages        []string                 `json:"pages"`
	PagesContent []map[string]interface{} `json:"pages-content"`
	Files        []string                 `json:"files"`
	HasMore      bool                     `json:"has-more?"`
}

// BacklinkRef is one entry of getPageLinkedReferences: the referencing
// page plus the blocks in it that link to the target.
type BacklinkRef struct {
	Page   map[string]interface{}
	Blocks []Block
}

func NewClient(cfg *config.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- local API, off by default via config
	}

	return &Client{
		baseURL: cfg.APIURL,
		token:   cfg.APIToken,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
	}
}

// Call issues one API request and returns the raw response body. There
// is no retry; a transport error, non-2xx status, or unreadable body
// fails the whole operation.
func (c *Client) Call(ctx context.Context, method string, args ...interface{}) (json.RawMessage, error) {
	if args == nil {
		args = []interface{}{}
	}
	payload, err := json.Marshal(apiRequest{Method: method, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := c.baseURL + "/api"
	logger.Debug("Calling %s at %s", method, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to Logseq failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("logseq API %s failed with status %d: %s", method, resp.StatusCode, string(body))
	}

	return body, nil
}

// call is Call plus JSON decoding into out. A nil out discards the body.
func (c *Client) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	body, err := c.Call(ctx, method, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

// QueryError reports a failed DSL query along with its underlying
// cause. Callers render it as a single text response; it never crosses
// the tool boundary as a fault.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// QueryDSL runs an opaque DSL query through logseq.DB.q and returns the
// raw result items in pass-through order. The query string is forwarded
// verbatim; this layer does not validate DSL grammar.
func (c *Client) QueryDSL(ctx context.Context, query string) ([]map[string]interface{}, error) {
	var results []map[string]interface{}
	if err := c.call(ctx, &results, "logseq.DB.q", query); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	logger.Debug("Query returned %d results", len(results))
	return results, nil
}

// Search runs a full-text search via logseq.search.
func (c *Client) Search(ctx context.Context, query string, opts map[string]interface{}) (*SearchResponse, error) {
	if opts == nil {
		opts = map[string]interface{}{}
	}
	var resp SearchResponse
	if err := c.call(ctx, &resp, "logseq.search", query, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPages returns all pages in the current graph.
func (c *Client) ListPages(ctx context.Context) ([]map[string]interface{}, error) {
	var pages []map[string]interface{}
	if err := c.call(ctx, &pages, "logseq.Editor.getAllPages"); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetPage returns the page entity, or nil if the page does not exist
// (Logseq answers null rather than an error).
func (c *Client) GetPage(ctx context.Context, name string) (map[string]interface{}, error) {
	body, err := c.Call(ctx, "logseq.Editor.getPage", name)
	if err != nil {
		return nil, err
	}
	var page map[string]interface{}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode getPage response: %w", err)
	}
	return page, nil
}

// GetPageBlocksTree returns the page's nested block tree.
func (c *Client) GetPageBlocksTree(ctx context.Context, name string) ([]Block, error) {
	var blocks []Block
	if err := c.call(ctx, &blocks, "logseq.Editor.getPageBlocksTree", name); err != nil {
		return nil, err
	}
	return blocks, nil
}

// GetPageContent fetches a page entity together with its block tree.
// Page properties live on the first block in Logseq, so they are lifted
// onto the page entity for callers. Returns nil when the page does not
// exist.
func (c *Client) GetPageContent(ctx context.Context, name string) (*PageContent, error) {
	page, err := c.GetPage(ctx, name)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	blocks, err := c.GetPageBlocksTree(ctx, name)
	if err != nil {
		return nil, err
	}

	if len(blocks) > 0 && len(blocks[0].Properties) > 0 {
		page["properties"] = blocks[0].Properties
	}

	return &PageContent{Page: page, Blocks: blocks}, nil
}

// AppendBlockInPage appends a block at the end of a page.
func (c *Client) AppendBlockInPage(ctx context.Context, pageName, content string) (*Block, error) {
	var block Block
	if err := c.call(ctx, &block, "logseq.Editor.appendBlockInPage", pageName, content); err != nil {
		return nil, err
	}
	return &block, nil
}

// InsertBlock inserts content relative to a reference block: as its
// child by default, or as a sibling when sibling is true.
func (c *Client) InsertBlock(ctx context.Context, refUUID, content string, sibling bool, properties map[string]interface{}) (*Block, error) {
	opts := map[string]interface{}{"sibling": sibling}
	if len(properties) > 0 {
		opts["properties"] = properties
	}
	var block Block
	if err := c.call(ctx, &block, "logseq.Editor.insertBlock", refUUID, content, opts); err != nil {
		return nil, err
	}
	return &block, nil
}

// UpdateBlock replaces the content of the block with the given UUID.
func (c *Client) UpdateBlock(ctx context.Context, uuid, content string) error {
	return c.call(ctx, nil, "logseq.Editor.updateBlock", uuid, content)
}

// RemoveBlock deletes the block with the given UUID.
func (c *Client) RemoveBlock(ctx context.Context, uuid string) error {
	return c.call(ctx, nil, "logseq.Editor.removeBlock", uuid)
}

// GetPagesFromNamespace returns the pages directly under a namespace.
func (c *Client) GetPagesFromNamespace(ctx context.Context, namespace string) ([]map[string]interface{}, error) {
	var pages []map[string]interface{}
	if err := c.call(ctx, &pages, "logseq.Editor.getPagesFromNamespace", namespace); err != nil {
		return nil, err
	}
	return pages, nil
}

// NamespacePage is one node of a namespace page hierarchy.
type NamespacePage struct {
	OriginalName string          `json:"originalName"`
	Name         string          `json:"name"`
	Children     []NamespacePage `json:"children,omitempty"`
}

// GetPagesTreeFromNamespace returns the namespace page hierarchy.
func (c *Client) GetPagesTreeFromNamespace(ctx context.Context, namespace string) ([]NamespacePage, error) {
	var pages []NamespacePage
	if err := c.call(ctx, &pages, "logseq.Editor.getPagesTreeFromNamespace", namespace); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetPageLinkedReferences returns the backlinks of a page. The wire
// shape is a list of [page, blocks] pairs.
func (c *Client) GetPageLinkedReferences(ctx context.Context, name string) ([]BacklinkRef, error) {
	body, err := c.Call(ctx, "logseq.Editor.getPageLinkedReferences", name)
	if err != nil {
		return nil, err
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode getPageLinkedReferences response: %w", err)
	}

	refs := make([]BacklinkRef, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		var ref BacklinkRef
		if err := json.Unmarshal(pair[0], &ref.Page); err != nil {
			return nil, fmt.Errorf("failed to decode backlink page: %w", err)
		}
		if err := json.Unmarshal(pair[1], &ref.Blocks); err != nil {
			return nil, fmt.Errorf("failed to decode backlink blocks: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
