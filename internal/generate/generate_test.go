package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFuncAdapter(t *testing.T) {
	gen := Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})

	out, err := gen.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "echo: hello" {
		t.Errorf("out = %q, want %q", out, "echo: hello")
	}
}

// completionServer answers OpenAI chat completion requests after
// failing the first n calls with a 500.
func completionServer(t *testing.T, failFirst int, reply string) *httptest.Server {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(calls.Add(1)) <= failFirst {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientGenerate(t *testing.T) {
	srv := completionServer(t, 0, "all clear")
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test", Model: "test-model"})

	out, err := c.Generate(context.Background(), "status?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "all clear" {
		t.Errorf("out = %q, want %q", out, "all clear")
	}
}

func TestClientRetriesTransientFailure(t *testing.T) {
	srv := completionServer(t, 1, "recovered")
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test", Model: "test-model", MaxRetries: 2})

	out, err := c.Generate(context.Background(), "status?")
	if err != nil {
		t.Fatalf("Generate should have recovered on retry: %v", err)
	}
	if out != "recovered" {
		t.Errorf("out = %q, want %q", out, "recovered")
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	srv := completionServer(t, 100, "")
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test", Model: "test-model", MaxRetries: 1})

	if _, err := c.Generate(context.Background(), "status?"); err == nil {
		t.Error("Generate should fail once retries are exhausted")
	}
}

func TestClientDoesNotRetryCancelledContext(t *testing.T) {
	srv := completionServer(t, 100, "")
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test", Model: "test-model", MaxRetries: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := c.Generate(ctx, "status?")
	if err == nil {
		t.Fatal("Generate with cancelled context should fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled call took %v, backoff should not apply", elapsed)
	}
}
