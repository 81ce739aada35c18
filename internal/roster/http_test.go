package roster

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/participants", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{
			"participants": {"eliza", "vince"},
		})
	})
	mux.HandleFunc("/participants/eliza", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/participants/eliza/invoke", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text  string `json:"text"`
			Scope string `json:"scope"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Scope != "test-room" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"reply": "on it"})
	})
	mux.HandleFunc("/participants/ghost/invoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDirectoryParticipants(t *testing.T) {
	srv := newTestDirectoryServer(t)
	dir := NewHTTPDirectory(srv.URL, time.Second)

	got := dir.Participants()
	if len(got) != 2 || got[0] != "eliza" || got[1] != "vince" {
		t.Fatalf("Participants() = %v, want [eliza vince]", got)
	}
}

func TestHTTPDirectoryResolve(t *testing.T) {
	srv := newTestDirectoryServer(t)
	dir := NewHTTPDirectory(srv.URL, time.Second)

	if !dir.Resolve("eliza") {
		t.Error("Resolve(eliza) = false, want true")
	}
	if dir.Resolve("ghost") {
		t.Error("Resolve(ghost) = true, want false")
	}
}

func TestHTTPDirectoryInvoke(t *testing.T) {
	srv := newTestDirectoryServer(t)
	dir := NewHTTPDirectory(srv.URL, time.Second)

	replies := make(chan string, 1)
	errs := make(chan error, 1)
	dir.Invoke("eliza", Message{Text: "your turn", Scope: "test-room"}, Callbacks{
		OnReply: func(text string) { replies <- text },
		OnError: func(err error) { errs <- err },
	})

	select {
	case reply := <-replies:
		if reply != "on it" {
			t.Errorf("reply = %q, want %q", reply, "on it")
		}
	case err := <-errs:
		t.Fatalf("unexpected invocation error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestHTTPDirectoryInvokeErrorStatus(t *testing.T) {
	srv := newTestDirectoryServer(t)
	dir := NewHTTPDirectory(srv.URL, time.Second)

	errs := make(chan error, 1)
	dir.Invoke("ghost", Message{Text: "hello", Scope: "test-room"}, Callbacks{
		OnReply: func(string) { t.Error("unexpected reply") },
		OnError: func(err error) { errs <- err },
	})

	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestHTTPDirectoryUnreachable(t *testing.T) {
	dir := NewHTTPDirectory("http://127.0.0.1:1", 200*time.Millisecond)

	if got := dir.Participants(); got != nil {
		t.Errorf("Participants() = %v, want nil", got)
	}
	if dir.Resolve("eliza") {
		t.Error("Resolve on unreachable directory = true, want false")
	}
}
