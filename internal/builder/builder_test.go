package builder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openclaw/standup/internal/generate"
	"github.com/openclaw/standup/internal/items"
)

func staticGen(text string) generate.Generator {
	return generate.Func(func(context.Context, string) (string, error) {
		return text, nil
	})
}

func failingGen() generate.Generator {
	return generate.Func(func(context.Context, string) (string, error) {
		return "", errors.New("model down")
	})
}

func newTestBuilder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b
}

func TestExecuteEmptyDescription(t *testing.T) {
	b := newTestBuilder(t, Config{Generator: staticGen("text")})

	res, err := b.Execute(context.Background(), items.Item{What: "   "})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res != nil {
		t.Errorf("Execute = %+v, want nil for empty description", res)
	}
}

func TestExecuteContentClass(t *testing.T) {
	root := t.TempDir()
	b := newTestBuilder(t, Config{Root: root, Generator: staticGen("# The Essay\n\nBody.")})

	item := items.Item{ID: "1", What: "Leverage and Judgment", Owner: "Naval", Type: "essay"}
	res, err := b.Execute(context.Background(), item)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res == nil || res.Path == "" {
		t.Fatalf("Execute = %+v, want a path result", res)
	}

	if !strings.Contains(res.Path, filepath.Join(root, "essays")) {
		t.Errorf("Path = %q, want it under essays/", res.Path)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("deliverable unreadable: %v", err)
	}
	if string(data) != "# The Essay\n\nBody." {
		t.Errorf("deliverable content = %q", string(data))
	}

	manifest, err := os.ReadFile(filepath.Join(root, "essays", "manifest.md"))
	if err != nil {
		t.Fatalf("manifest unreadable: %v", err)
	}
	if !strings.Contains(string(manifest), "Leverage and Judgment") {
		t.Errorf("manifest missing item:\n%s", manifest)
	}
	if !strings.HasPrefix(string(manifest), "# Deliverables Manifest") {
		t.Errorf("manifest missing header:\n%s", manifest)
	}
}

func TestExecuteContentClassGenerationFailureDegrades(t *testing.T) {
	b := newTestBuilder(t, Config{Generator: failingGen()})

	res, err := b.Execute(context.Background(), items.Item{What: "x", Type: "tweets"})
	if err != nil {
		t.Fatalf("Execute should degrade, not error: %v", err)
	}
	if res != nil {
		t.Errorf("Execute = %+v, want nil on generation failure", res)
	}
}

func TestExecuteGenericBuildDelegatesToGateway(t *testing.T) {
	var gotPath string
	var gotBody gatewayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "build scheduled", "status": "accepted"})
	}))
	defer srv.Close()

	b := newTestBuilder(t, Config{Generator: failingGen(), GatewayURL: srv.URL, Fallback: true})

	item := items.Item{ID: "42", What: "wire the metrics endpoint", Owner: "Sentinel", Type: "build"}
	res, err := b.Execute(context.Background(), item)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res == nil || res.Message != "build scheduled" {
		t.Errorf("Execute = %+v, want the gateway message", res)
	}
	if gotPath != "/api/standup-action" {
		t.Errorf("gateway path = %q", gotPath)
	}
	if gotBody.What != item.What || gotBody.ID != "42" {
		t.Errorf("gateway body = %+v", gotBody)
	}
}

func TestExecuteGenericBuildFallsBackWhenGatewayFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	root := t.TempDir()
	b := newTestBuilder(t, Config{Root: root, Generator: staticGen("package main"), GatewayURL: srv.URL, Fallback: true})

	res, err := b.Execute(context.Background(), items.Item{ID: "1", What: "tiny tool", Type: "build"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res == nil || res.Path == "" {
		t.Fatalf("Execute = %+v, want a local fallback file", res)
	}
	if !strings.Contains(res.Path, filepath.Join(root, "builds")) {
		t.Errorf("Path = %q, want it under builds/", res.Path)
	}
}

func TestExecuteGenericBuildNoGatewayNoFallback(t *testing.T) {
	b := newTestBuilder(t, Config{Generator: staticGen("content"), Fallback: false})

	res, err := b.Execute(context.Background(), items.Item{What: "x", Type: "build"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res != nil {
		t.Errorf("Execute = %+v, want nil with delegation and fallback both off", res)
	}
}

func TestExecuteRemind(t *testing.T) {
	b := newTestBuilder(t, Config{Generator: staticGen("unused")})

	res, err := b.Execute(context.Background(), items.Item{What: "rotate the API keys", Type: "remind"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res == nil || !strings.Contains(res.Message, "rotate the API keys") {
		t.Errorf("Execute = %+v, want a reminder message", res)
	}
}

func TestExecuteApprovalDiversion(t *testing.T) {
	root := t.TempDir()
	b := newTestBuilder(t, Config{Root: root, Generator: staticGen("unused"), ApprovalTypes: []string{"trades"}})

	item := items.Item{ID: "7", What: "long BTC at support", Type: "trades"}
	res, err := b.Execute(context.Background(), item)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res == nil || !strings.Contains(res.Message, "approval") {
		t.Errorf("Execute = %+v, want an approval message", res)
	}

	data, err := os.ReadFile(filepath.Join(root, "pending-approval.ndjson"))
	if err != nil {
		t.Fatalf("approval queue unreadable: %v", err)
	}
	var entry approvalEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("approval entry not valid JSON: %v", err)
	}
	if entry.Item.ID != "7" {
		t.Errorf("queued item = %+v", entry.Item)
	}

	// No deliverable was generated.
	if _, err := os.Stat(filepath.Join(root, "trades")); !os.IsNotExist(err) {
		t.Error("approval-gated item must not produce a deliverable")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leverage & Judgment!", "leverage-judgment"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"", "deliverable"},
		{"///", "deliverable"},
		{strings.Repeat("long", 30), strings.Repeat("long", 12)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
