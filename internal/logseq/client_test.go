package logseq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ergut/mcp-logseq/internal/config"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return NewClient(&config.Config{
		APIURL:         ts.URL,
		APIToken:       "test-token",
		VerifySSL:      true,
		TimeoutSeconds: 5,
	})
}

func decodeRequest(t *testing.T, r *http.Request) apiRequest {
	t.Helper()
	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("Failed to decode request body: %v", err)
	}
	return req
}

func TestCallSendsMethodAndArgs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			t.Errorf("Expected path /api, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Expected bearer token header, got %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %q", ct)
		}

		req := decodeRequest(t, r)
		if req.Method != "logseq.Editor.getPage" {
			t.Errorf("Expected method logseq.Editor.getPage, got %s", req.Method)
		}
		if len(req.Args) != 1 || req.Args[0] != "Test Page" {
			t.Errorf("Unexpected args: %v", req.Args)
		}

		w.Write([]byte(`{"name": "test page"}`))
	})

	body, err := client.Call(context.Background(), "logseq.Editor.getPage", "Test Page")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(body) != `{"name": "test page"}` {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestCallNoArgsSendsEmptyArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if string(raw["args"]) != "[]" {
			t.Errorf("Expected args [], got %s", raw["args"])
		}
		w.Write([]byte(`[]`))
	})

	if _, err := client.Call(context.Background(), "logseq.Editor.getAllPages"); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
}

func TestCallErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	})

	_, err := client.Call(context.Background(), "logseq.DB.q", "(broken")
	if err == nil {
		t.Fatal("Expected error for 400 status")
	}
}

func TestQueryDSL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if req.Method != "logseq.DB.q" {
			t.Errorf("Expected logseq.DB.q, got %s", req.Method)
		}
		w.Write([]byte(`[{"originalName": "Page A"}, {"content": "a block"}]`))
	})

	items, err := client.QueryDSL(context.Background(), "(task TODO)")
	if err != nil {
		t.Fatalf("QueryDSL failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	// Pass-through order
	if items[0]["originalName"] != "Page A" {
		t.Errorf("Expected Page A first, got %v", items[0])
	}
	if items[1]["content"] != "a block" {
		t.Errorf("Expected block second, got %v", items[1])
	}
}

func TestQueryDSLFailureWrapsQueryError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse error", http.StatusInternalServerError)
	})

	_, err := client.QueryDSL(context.Background(), "(bad query")
	if err == nil {
		t.Fatal("Expected error")
	}

	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("Expected QueryError, got %T", err)
	}
	if qerr.Query != "(bad query" {
		t.Errorf("Expected query in error, got %q", qerr.Query)
	}
}

func TestGetPageNullMeansNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	page, err := client.GetPage(context.Background(), "Missing")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if page != nil {
		t.Errorf("Expected nil page, got %v", page)
	}
}

func TestGetPageContentLiftsFirstBlockProperties(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Method {
		case "logseq.Editor.getPage":
			w.Write([]byte(`{"originalName": "Project X"}`))
		case "logseq.Editor.getPageBlocksTree":
			w.Write([]byte(`[{"uuid": "b1", "content": "first", "properties": {"type": "project"}}]`))
		default:
			t.Errorf("Unexpected method: %s", req.Method)
		}
	})

	content, err := client.GetPageContent(context.Background(), "Project X")
	if err != nil {
		t.Fatalf("GetPageContent failed: %v", err)
	}
	props, _ := content.Page["properties"].(map[string]interface{})
	if props["type"] != "project" {
		t.Errorf("Expected lifted properties, got %v", content.Page["properties"])
	}
}

func TestGetPageLinkedReferences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			[{"originalName": "Referrer"}, [{"uuid": "b1", "content": "see [[Target]]"}]]
		]`))
	})

	refs, err := client.GetPageLinkedReferences(context.Background(), "Target")
	if err != nil {
		t.Fatalf("GetPageLinkedReferences failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Expected 1 ref, got %d", len(refs))
	}
	if refs[0].Page["originalName"] != "Referrer" {
		t.Errorf("Unexpected page: %v", refs[0].Page)
	}
	if len(refs[0].Blocks) != 1 || refs[0].Blocks[0].Content != "see [[Target]]" {
		t.Errorf("Unexpected blocks: %v", refs[0].Blocks)
	}
}

func TestDeletePageValidatesExistence(t *testing.T) {
	deleteCalled := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Method {
		case "logseq.Editor.getAllPages":
			w.Write([]byte(`[{"originalName": "Existing", "name": "existing"}]`))
		case "logseq.Editor.deletePage":
			deleteCalled = true
			w.Write([]byte(`null`))
		}
	})

	err := client.DeletePage(context.Background(), "Missing")
	if !errors.Is(err, interrors.ErrPageNotFound) {
		t.Errorf("Expected ErrPageNotFound, got %v", err)
	}
	if deleteCalled {
		t.Error("deletePage should not be called for a missing page")
	}

	if err := client.DeletePage(context.Background(), "Existing"); err != nil {
		t.Errorf("Expected delete to succeed, got %v", err)
	}
	if !deleteCalled {
		t.Error("deletePage was not called for an existing page")
	}
}

func TestRenamePageValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Method {
		case "logseq.Editor.getAllPages":
			w.Write([]byte(`[{"originalName": "Old"}, {"originalName": "Taken"}]`))
		case "logseq.Editor.renamePage":
			if len(req.Args) != 2 || req.Args[0] != "Old" || req.Args[1] != "New" {
				t.Errorf("Unexpected rename args: %v", req.Args)
			}
			w.Write([]byte(`null`))
		}
	})

	if err := client.RenamePage(context.Background(), "Ghost", "New"); !errors.Is(err, interrors.ErrPageNotFound) {
		t.Errorf("Expected ErrPageNotFound, got %v", err)
	}
	if err := client.RenamePage(context.Background(), "Old", "Taken"); !errors.Is(err, interrors.ErrPageExists) {
		t.Errorf("Expected ErrPageExists, got %v", err)
	}
	if err := client.RenamePage(context.Background(), "Old", "New"); err != nil {
		t.Errorf("Expected rename to succeed, got %v", err)
	}
}

func TestUpdatePageMissingPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	err := client.UpdatePage(context.Background(), "Missing", nil, nil, ModeAppend)
	if !errors.Is(err, interrors.ErrPageNotFound) {
		t.Errorf("Expected ErrPageNotFound, got %v", err)
	}
}
