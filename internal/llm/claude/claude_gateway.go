package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"flowforge/internal/config"
	"flowforge/internal/llm"
	"flowforge/internal/port"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	provider   = "claude"
)

var _ port.LLMGateway = (*Gateway)(nil)

// Gateway implements port.LLMGateway using the Anthropic Messages API.
type Gateway struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewGateway creates a Claude gateway from a provider config.
func NewGateway(cfg *config.ProviderConfig) *Gateway {
	return newGateway(cfg, apiURL)
}

// NewGatewayWithEndpoint creates a gateway pointing at a custom API endpoint (for testing).
func NewGatewayWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Gateway {
	return newGateway(cfg, endpoint)
}

// Factory adapts NewGateway to llm.ProviderFactory.
func Factory(cfg *config.ProviderConfig) (port.LLMGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude: api key is required")
	}
	return NewGateway(cfg), nil
}

func newGateway(cfg *config.ProviderConfig, endpoint string) *Gateway {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Gateway{
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *Gateway) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      g.model,
		"max_tokens": g.maxTokens,
		"system":     systemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": userPrompt,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", llm.TransportError(provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.TransportError(provider, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError(provider, baseErr, retryAfter)
		}
		return "", llm.TransportError(provider, baseErr)
	}

	return parseResponse(respBody)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", llm.TransportError(provider, fmt.Errorf("unmarshaling response: %w", err))
	}

	switch resp.StopReason {
	case "max_tokens":
		return "", llm.TruncatedError(provider, "stop_reason: max_tokens")
	case "refusal":
		return "", llm.TransportError(provider, fmt.Errorf("model refused the request"))
	}

	for _, block := range resp.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", llm.TransportError(provider, fmt.Errorf("empty response from API"))
}
