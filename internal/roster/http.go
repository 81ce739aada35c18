package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPDirectory talks to an external participant directory service.
//
//	GET  /participants                 → {"participants": ["id", ...]}
//	GET  /participants/{id}            → 200 if the id is callable
//	POST /participants/{id}/invoke     → {"reply": "..."}
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory builds a directory client for the given base URL.
func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDirectory) Participants() []string {
	resp, err := d.client.Get(d.baseURL + "/participants")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var payload struct {
		Participants []string `json:"participants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}
	return payload.Participants
}

func (d *HTTPDirectory) Resolve(id string) bool {
	resp, err := d.client.Get(d.baseURL + "/participants/" + id)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (d *HTTPDirectory) Invoke(id string, msg Message, cb Callbacks) {
	go func() {
		body, err := json.Marshal(map[string]string{
			"text":  msg.Text,
			"scope": msg.Scope,
		})
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		resp, err := d.client.Post(
			d.baseURL+"/participants/"+id+"/invoke",
			"application/json",
			bytes.NewReader(body),
		)
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			if cb.OnError != nil {
				cb.OnError(fmt.Errorf("roster: directory returned status %d for %s", resp.StatusCode, id))
			}
			return
		}
		var payload struct {
			Reply string `json:"reply"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		if cb.OnReply != nil {
			cb.OnReply(payload.Reply)
		}
	}()
}
