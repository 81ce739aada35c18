package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPPriceSource fetches spot prices from an external service:
//
//	GET {base}/price/{asset} → {"price": 123.45}
type HTTPPriceSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPriceSource builds a price client for the given base URL.
func NewHTTPPriceSource(baseURL string, timeout time.Duration) *HTTPPriceSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPriceSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPPriceSource) Price(ctx context.Context, asset string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/price/"+asset, nil)
	if err != nil {
		return 0, fmt.Errorf("predictions: build price request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predictions: fetch price for %s: %w", asset, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predictions: price service returned status %d for %s", resp.StatusCode, asset)
	}
	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("predictions: decode price for %s: %w", asset, err)
	}
	return payload.Price, nil
}
