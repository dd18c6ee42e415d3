package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/ergut/mcp-logseq/internal/config"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
	"github.com/ergut/mcp-logseq/internal/logseq"
)

func newTestAPIServer(t *testing.T, handler http.HandlerFunc) *APIServer {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		APIURL:         ts.URL,
		APIToken:       "test-token",
		VerifySSL:      true,
		TimeoutSeconds: 5,
	}
	return NewAPIServer(cfg, logseq.NewClient(cfg), "test")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	return resp
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"page not found", interrors.ErrPageNotFound, http.StatusNotFound},
		{"page exists", interrors.ErrPageExists, http.StatusConflict},
		{"empty query", interrors.ErrEmptyQuery, http.StatusBadRequest},
		{"invalid result type", interrors.ErrInvalidResultType, http.StatusBadRequest},
		{"upstream failure", http.ErrServerClosed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.expected {
				t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestHandleQueryInvalidBody(t *testing.T) {
	s := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No upstream call expected")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handleQuery(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success {
		t.Error("Expected success=false")
	}
	if resp.Error == "" {
		t.Error("Expected error message in envelope")
	}
}

func TestHandleQueryFiltersAndLimits(t *testing.T) {
	s := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"originalName": "A"}, {"content": "b"}, {"originalName": "C"}]`))
	})

	body := `{"query": "(all-pages)", "result_type": "pages_only", "limit": 1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleQuery(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	data, _ := resp.Data.(map[string]interface{})
	if data["total"] != float64(2) {
		t.Errorf("Expected filtered total 2, got %v", data["total"])
	}
	if data["shown"] != float64(1) {
		t.Errorf("Expected shown 1, got %v", data["shown"])
	}
}

func TestHandleGetPageNotFound(t *testing.T) {
	s := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/Ghost", nil)
	req = mux.SetURLVars(req, map[string]string{"name": "Ghost"})
	rec := httptest.NewRecorder()
	s.handleGetPage(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Error == "" {
		t.Errorf("Expected error envelope, got %+v", resp)
	}
}

func TestHandleCreatePageRequiresTitle(t *testing.T) {
	s := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No upstream call expected")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pages", strings.NewReader(`{"content": "- hi"}`))
	rec := httptest.NewRecorder()
	s.handleCreatePage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestHandleConfigOmitsToken(t *testing.T) {
	s := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	rec := httptest.NewRecorder()
	s.handleConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "test-token") {
		t.Error("Config response must not leak the API token")
	}
}
