package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openclaw/standup/internal/items"
)

// gatewayClient delegates generic build items to an external build
// service over HTTP.
type gatewayClient struct {
	baseURL string
	client  *http.Client
}

func newGatewayClient(baseURL string) *gatewayClient {
	return &gatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// gatewayRequest is the payload the build service accepts.
type gatewayRequest struct {
	ID      string `json:"id"`
	What    string `json:"what"`
	How     string `json:"how,omitempty"`
	Why     string `json:"why,omitempty"`
	Owner   string `json:"owner"`
	Urgency string `json:"urgency"`
}

type gatewayResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// submit posts the item to the gateway and returns its acknowledgment
// message. Any transport or status failure is an error; the caller
// decides whether to fall back.
func (g *gatewayClient) submit(ctx context.Context, item items.Item) (string, error) {
	body, err := json.Marshal(gatewayRequest{
		ID:      item.ID,
		What:    item.What,
		How:     item.How,
		Why:     item.Why,
		Owner:   item.Owner,
		Urgency: string(item.Urgency),
	})
	if err != nil {
		return "", fmt.Errorf("builder: marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/standup-action", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("builder: new gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("builder: gateway post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("builder: gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var gr gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil || gr.Message == "" {
		return "build accepted by gateway", nil
	}
	return gr.Message, nil
}
