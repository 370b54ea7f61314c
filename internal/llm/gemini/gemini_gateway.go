package gemini

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
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	provider   = "gemini"
)

var _ port.LLMGateway = (*Gateway)(nil)

// Gateway implements port.LLMGateway using Google's Gemini API.
type Gateway struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewGateway creates a Gemini gateway from a provider config.
func NewGateway(cfg *config.ProviderConfig) *Gateway {
	return newGateway(cfg, "")
}

// NewGatewayWithEndpoint creates a gateway pointing at a custom API endpoint (for testing).
func NewGatewayWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Gateway {
	return newGateway(cfg, endpoint)
}

// Factory adapts NewGateway to llm.ProviderFactory.
func Factory(cfg *config.ProviderConfig) (port.LLMGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	return NewGateway(cfg), nil
}

func newGateway(cfg *config.ProviderConfig, endpoint string) *Gateway {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
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
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]interface{}{{"text": systemPrompt}},
		},
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]interface{}{{"text": userPrompt}},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  g.maxTokens,
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
	req.Header.Set("x-goog-api-key", g.apiKey)

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
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError(provider, baseErr, retryAfter)
		}
		return "", llm.TransportError(provider, baseErr)
	}

	return parseResponse(respBody)
}

type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", llm.TransportError(provider, fmt.Errorf("unmarshaling response: %w", err))
	}
	if len(resp.Candidates) == 0 {
		return "", llm.TransportError(provider, fmt.Errorf("no candidates in response"))
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case "MAX_TOKENS":
		return "", llm.TruncatedError(provider, "finishReason: MAX_TOKENS")
	case "SAFETY", "RECITATION", "PROHIBITED_CONTENT":
		return "", llm.TransportError(provider, fmt.Errorf("blocked by %s", cand.FinishReason))
	}
	if len(cand.Content.Parts) == 0 {
		return "", llm.TransportError(provider, fmt.Errorf("empty response from API"))
	}
	return cand.Content.Parts[0].Text, nil
}
