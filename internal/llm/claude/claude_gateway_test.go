package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/internal/config"
	"flowforge/internal/domain"
	"flowforge/internal/llm"
	"flowforge/internal/llm/claude"
)

func newTestGateway(serverURL string) *claude.Gateway {
	cfg := &config.ProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		MaxTokens:    4000,
		TimeoutSecs:  30,
	}
	return claude.NewGatewayWithEndpoint(cfg, serverURL)
}

func TestClaudeGateway_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(4000), reqBody["max_tokens"])
		assert.Equal(t, "You are a process analyst.", reqBody["system"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])
		assert.Equal(t, "Extract this.", msg["content"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"processName":"X"}`}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	out, err := newTestGateway(server.URL).Send(context.Background(), "You are a process analyst.", "Extract this.")

	require.NoError(t, err)
	assert.Equal(t, `{"processName":"X"}`, out)
}

func TestClaudeGateway_Send_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limited"}`))
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Send(context.Background(), "sys", "user")

	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, float64(12), rlErr.RetryAfter.Seconds())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClaudeGateway_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Send(context.Background(), "sys", "user")

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClaudeGateway_Send_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"processName":"X","nodes":[`}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Send(context.Background(), "sys", "user")

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClaudeGateway_Send_Refusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{},
			"stop_reason": "refusal",
		})
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Send(context.Background(), "sys", "user")

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClaudeFactory_RequiresKey(t *testing.T) {
	_, err := claude.Factory(&config.ProviderConfig{Provider: "claude"})

	assert.Error(t, err)
}
