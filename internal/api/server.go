// Package api exposes the Logseq tools over a local HTTP gateway, for
// clients that want plain REST instead of the MCP stdio transport.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/ergut/mcp-logseq/internal/config"
	"github.com/ergut/mcp-logseq/internal/constants"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
	"github.com/ergut/mcp-logseq/internal/logger"
	"github.com/ergut/mcp-logseq/internal/logseq"
	"github.com/ergut/mcp-logseq/internal/markdown"
	"github.com/ergut/mcp-logseq/internal/results"
)

type APIServer struct {
	cfg     *config.Config
	client  *logseq.Client
	server  *http.Server
	version string
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type QueryRequest struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
	ResultType string `json:"result_type"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type CreatePageRequest struct {
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

type UpdatePageRequest struct {
	Content    string                 `json:"content"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Mode       string                 `json:"mode,omitempty"`
}

type RenamePageRequest struct {
	NewName string `json:"new_name"`
}

func NewAPIServer(cfg *config.Config, client *logseq.Client, version string) *APIServer {
	return &APIServer{
		cfg:     cfg,
		client:  client,
		version: version,
	}
}

func (s *APIServer) Start(host string, port int) error {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Query endpoints
	api.HandleFunc("/query", s.handleQuery).Methods("POST")
	api.HandleFunc("/search", s.handleSearch).Methods("POST")

	// Page endpoints
	api.HandleFunc("/pages", s.handleListPages).Methods("GET")
	api.HandleFunc("/pages", s.handleCreatePage).Methods("POST")
	api.HandleFunc("/pages/{name}", s.handleGetPage).Methods("GET")
	api.HandleFunc("/pages/{name}", s.handleUpdatePage).Methods("PUT")
	api.HandleFunc("/pages/{name}", s.handleDeletePage).Methods("DELETE")
	api.HandleFunc("/pages/{name}/rename", s.handleRenamePage).Methods("POST")
	api.HandleFunc("/pages/{name}/backlinks", s.handleBacklinks).Methods("GET")

	// Namespace endpoints
	api.HandleFunc("/namespaces/{namespace}", s.handleNamespace).Methods("GET")
	api.HandleFunc("/namespaces/{namespace}/tree", s.handleNamespaceTree).Methods("GET")

	// Info endpoints
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/config", s.handleConfig).Methods("GET")
	api.HandleFunc("/docs", s.handleDocs).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	handler := c.Handler(router)

	addr := fmt.Sprintf("%s:%d", host, port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HTTP API server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *APIServer) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.LogResponse(r.Method, r.URL.Path, rec.status, time.Since(start).String())
	})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: statusCode < 400,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error:   err.Error(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

// statusForError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is treated as an upstream failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interrors.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, interrors.ErrPageExists):
		return http.StatusConflict
	case errors.Is(err, interrors.ErrInvalidResultType),
		errors.Is(err, interrors.ErrEmptyQuery),
		errors.Is(err, interrors.ErrMissingPropertyName):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Handlers

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   s.version,
		"api_url":   s.cfg.APIURL,
	}

	// One cheap round trip tells us whether Logseq is reachable
	if _, err := s.client.ListPages(r.Context()); err != nil {
		health["status"] = "unhealthy"
		health["logseq_error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *APIServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	// Token stays out of the response
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"api_url":         s.cfg.APIURL,
		"verify_ssl":      s.cfg.VerifySSL,
		"timeout_seconds": s.cfg.TimeoutSeconds,
		"debug":           s.cfg.Debug,
	})
}

func (s *APIServer) handleDocs(w http.ResponseWriter, r *http.Request) {
	docs := `# mcp-logseq HTTP Gateway Documentation

## Base URL
http://localhost:8080/api/v1

## Endpoints

### Queries
- POST /query - Run a Logseq DSL query
- POST /search - Full-text search across pages and blocks

### Pages
- GET /pages - List pages (query param: include_journals)
- GET /pages/{name} - Get a page with its block tree
- POST /pages - Create a page from markdown content
- PUT /pages/{name} - Append to or replace a page
- DELETE /pages/{name} - Delete a page
- POST /pages/{name}/rename - Rename a page
- GET /pages/{name}/backlinks - Linked references of a page

### Namespaces
- GET /namespaces/{namespace} - Pages directly under a namespace
- GET /namespaces/{namespace}/tree - Namespace page hierarchy

### System
- GET /health - Health check (includes a Logseq round trip)
- GET /config - Configuration info (token omitted)
- GET /docs - This documentation

## Example Usage

### Run a DSL query:
POST /query
{
  "query": "(page-property type customer)",
  "result_type": "pages_only",
  "limit": 50
}

### Create a page:
POST /pages
{
  "title": "Meeting Notes",
  "content": "- Agenda\n  - Item one",
  "properties": {"type": "meeting"}
}
`

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(docs)); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}

func (s *APIServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, interrors.ErrEmptyQuery)
		return
	}

	resultType, err := results.ParseType(req.ResultType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = constants.DefaultQueryLimit
	}

	items, err := s.client.QueryDSL(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	filtered := results.Filter(items, resultType)
	shown := filtered
	if len(shown) > limit {
		shown = shown[:limit]
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"total":   len(filtered),
		"shown":   len(shown),
		"results": shown,
	})
}

func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, interrors.ErrEmptyQuery)
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	resp, err := s.client.Search(r.Context(), req.Query, map[string]interface{}{"limit": limit})
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.client.ListPages(r.Context())
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	includeJournals := r.URL.Query().Get("include_journals") == "true"
	if !includeJournals {
		kept := make([]map[string]interface{}, 0, len(pages))
		for _, page := range pages {
			if isJournal, _ := page["journal?"].(bool); !isJournal {
				kept = append(kept, page)
			}
		}
		pages = kept
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": len(pages),
		"pages": pages,
	})
}

func (s *APIServer) handleGetPage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	content, err := s.client.GetPageContent(r.Context(), name)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}
	if content == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("page %q: %w", name, interrors.ErrPageNotFound))
		return
	}

	s.writeJSON(w, http.StatusOK, content)
}

func (s *APIServer) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Title == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}

	blocks, frontmatter := markdown.Parse(req.Content)
	properties := frontmatter
	if len(req.Properties) > 0 {
		if properties == nil {
			properties = map[string]interface{}{}
		}
		for key, value := range req.Properties {
			properties[key] = value
		}
	}

	if err := s.client.CreatePage(r.Context(), req.Title, blocks, properties); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"title": req.Title})
}

func (s *APIServer) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Content == "" && len(req.Properties) == 0 {
		s.writeError(w, http.StatusBadRequest, interrors.ErrNoUpdates)
		return
	}

	mode := logseq.ModeAppend
	if req.Mode != "" {
		mode = logseq.UpdateMode(req.Mode)
	}

	blocks, _ := markdown.Parse(req.Content)
	if err := s.client.UpdatePage(r.Context(), name, blocks, req.Properties, mode); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"page": name, "mode": string(mode)})
}

func (s *APIServer) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.client.DeletePage(r.Context(), name); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (s *APIServer) handleRenamePage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req RenamePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.NewName == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("new_name is required"))
		return
	}

	if err := s.client.RenamePage(r.Context(), name, req.NewName); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"old_name": name, "new_name": req.NewName})
}

func (s *APIServer) handleBacklinks(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	refs, err := s.client.GetPageLinkedReferences(r.Context(), name)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	type backlinkEntry struct {
		Page   string         `json:"page"`
		Blocks []logseq.Block `json:"blocks"`
	}
	entries := make([]backlinkEntry, 0, len(refs))
	for _, ref := range refs {
		entries = append(entries, backlinkEntry{
			Page:   results.DisplayName(ref.Page),
			Blocks: ref.Blocks,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"page":      name,
		"total":     len(entries),
		"backlinks": entries,
	})
}

func (s *APIServer) handleNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := mux.Vars(r)["namespace"]

	pages, err := s.client.GetPagesFromNamespace(r.Context(), namespace)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"namespace": namespace,
		"total":     len(pages),
		"pages":     pages,
	})
}

func (s *APIServer) handleNamespaceTree(w http.ResponseWriter, r *http.Request) {
	namespace := mux.Vars(r)["namespace"]

	tree, err := s.client.GetPagesTreeFromNamespace(r.Context(), namespace)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"namespace": namespace,
		"tree":      tree,
	})
}
