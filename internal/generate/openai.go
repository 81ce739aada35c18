package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures an OpenAI-compatible generation client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// MaxRetries bounds transient-failure retries (default 2).
	MaxRetries int
}

// Client implements Generator against any OpenAI-compatible endpoint
// using the go-openai SDK.
type Client struct {
	client *openai.Client
	model  string
	cfg    Config
}

// NewClient creates an SDK-backed generation client.
func NewClient(cfg Config) *Client {
	sdkCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	sdkCfg.HTTPClient = httpClient

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	return &Client{
		client: openai.NewClientWithConfig(sdkCfg),
		model:  cfg.Model,
		cfg:    cfg,
	}
}

// Generate runs one chat completion and returns its text. Transient
// failures retry with exponential backoff; context cancellation is
// never retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(250*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", err
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("generate: empty completion")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("generate: chat completion failed after %d retries: %w", c.cfg.MaxRetries, lastErr)
}
