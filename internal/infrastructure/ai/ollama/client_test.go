package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL: server.URL,
		Model:   "llama-test",
		Timeout: 2 * time.Second,
		NumCtx:  4096,
	}, zaptest.NewLogger(t))
}

func TestClient_Complete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-test", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, 0.7, req.Options["temperature"])
		assert.Equal(t, float64(500), req.Options["num_predict"])
		assert.Equal(t, float64(4096), req.Options["num_ctx"])
		require.Len(t, req.Messages, 1)

		_, _ = w.Write([]byte(`{"model":"llama-test","message":{"role":"assistant","content":"{\"recommendations\":[]}"},"done":true}`))
	})

	got, err := client.Complete(context.Background(), outbound.CompletionRequest{
		Purpose:     outbound.PurposeGenerate,
		Prompt:      "Rate my meal",
		Temperature: 0.7,
		MaxTokens:   500,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"recommendations":[]}`, got)
	assert.Equal(t, "ollama", client.Name())
}

func TestClient_Complete_Errors(t *testing.T) {
	t.Run("NotDone", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"content":"partial"},"done":false}`))
		})

		_, err := client.Complete(context.Background(), outbound.CompletionRequest{Prompt: "hi"})
		assert.ErrorIs(t, err, advice.ErrMalformedAIResponse)
	})

	t.Run("ModelMissing", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
		})

		_, err := client.Complete(context.Background(), outbound.CompletionRequest{Prompt: "hi"})
		assert.ErrorIs(t, err, advice.ErrAIServiceUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zaptest.NewLogger(t))

		_, err := client.Complete(context.Background(), outbound.CompletionRequest{Prompt: "hi"})
		assert.ErrorIs(t, err, advice.ErrAIServiceUnavailable)
		assert.Error(t, client.HealthCheck(context.Background()))
	})
}

func TestClient_HealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, client.HealthCheck(context.Background()))
}
