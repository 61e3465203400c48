package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mnemosyne/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func executeCommand(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", serverURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestContentsListRendersRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_contents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "timestamp": "2026-08-28 09:15:00", "deviceid": "192.168.1.20", "description": "a cup of coffee on a desk"},
		})
	}))
	defer srv.Close()

	out, err := executeCommand(t, srv.URL, "contents", "list")
	if err != nil {
		t.Fatalf("contents list: %v", err)
	}
	if !strings.Contains(out, "a cup of coffee on a desk") {
		t.Fatalf("output missing description:\n%s", out)
	}
	if !strings.Contains(out, "1 records") {
		t.Fatalf("output missing record count:\n%s", out)
	}
}

func TestContentsListJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{{"id": 4, "deviceid": "dev4"}})
	}))
	defer srv.Close()

	out, err := executeCommand(t, srv.URL, "contents", "list", "--json")
	if err != nil {
		t.Fatalf("contents list --json: %v", err)
	}
	if !strings.Contains(out, `"deviceid": "dev4"`) {
		t.Fatalf("output not JSON:\n%s", out)
	}
}

func TestContentsDeleteReportsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"deleted": 1, "contents": []any{}})
	}))
	defer srv.Close()

	out, err := executeCommand(t, srv.URL, "contents", "delete", "3", "9999")
	if err != nil {
		t.Fatalf("contents delete: %v", err)
	}
	if !strings.Contains(out, "Deleted 1 of 2 records") {
		t.Fatalf("output = %q", out)
	}
}

func TestContentsDeleteRejectsBadID(t *testing.T) {
	if _, err := executeCommand(t, "http://127.0.0.1:1", "contents", "delete", "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestQueryPrintsAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostFormValue("question"); got != "what happened?" {
			t.Errorf("question = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"answer": "nothing much"})
	}))
	defer srv.Close()

	out, err := executeCommand(t, srv.URL, "query", "what happened?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "nothing much" {
		t.Fatalf("output = %q", out)
	}
}

func TestStatusPrintsHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "contents": 12})
	}))
	defer srv.Close()

	out, err := executeCommand(t, srv.URL, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Status:   ok") || !strings.Contains(out, "Contents: 12") {
		t.Fatalf("output = %q", out)
	}
}

func TestPreviewDescriptionTruncates(t *testing.T) {
	long := strings.Repeat("word ", 40)
	preview := previewDescription(long)
	if len(preview) > descriptionPreviewLimit {
		t.Fatalf("preview length = %d", len(preview))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("preview = %q", preview)
	}
}

func TestServerURLStripsUploadPath(t *testing.T) {
	server := ""
	configPath := ""
	ctx := newCommandContext(&server, &configPath)
	ctx.configOnce.Do(func() {})
	cfg := testConfig()
	cfg.Device.ContentServerURL = "http://example.org:5000/add_content"
	ctx.config = cfg

	url, err := ctx.serverURL()
	if err != nil {
		t.Fatalf("serverURL: %v", err)
	}
	if url != "http://example.org:5000" {
		t.Fatalf("url = %q", url)
	}
}
