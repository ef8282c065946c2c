// Package ollama provides a completion client for local Ollama inference
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

const providerName = "ollama"

// Config holds connection settings for an Ollama server
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// NumCtx sets the context window; zero leaves the server default
	NumCtx int
}

// Client implements outbound.CompletionClient using the Ollama chat API
type Client struct {
	baseURL string
	model   string
	numCtx  int
	client  *http.Client
	logger  *zap.Logger
}

var (
	_ outbound.CompletionClient = (*Client)(nil)
	_ outbound.HealthCheckable  = (*Client)(nil)
)

// NewClient creates a new Ollama client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:3b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		numCtx:  cfg.NumCtx,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("ollama-client"),
	}
}

// Ollama API structures
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ChatResponse struct {
	Model         string      `json:"model"`
	Message       ChatMessage `json:"message"`
	Done          bool        `json:"done"`
	TotalDuration int64       `json:"total_duration,omitempty"`
	EvalCount     int         `json:"eval_count,omitempty"`
	EvalDuration  int64       `json:"eval_duration,omitempty"`
}

// Name identifies the provider
func (c *Client) Name() string {
	return providerName
}

// HealthCheck verifies the Ollama service is available
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode)
	}

	c.logger.Debug("Ollama health check passed")
	return nil
}

// Complete sends one non-streaming chat request
func (c *Client) Complete(ctx context.Context, r outbound.CompletionRequest) (string, error) {
	messages := make([]ChatMessage, 0, 2)
	if r.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: r.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: r.Prompt})

	options := map[string]interface{}{
		"temperature": r.Temperature,
	}
	if r.MaxTokens > 0 {
		options["num_predict"] = r.MaxTokens
	}
	if c.numCtx > 0 {
		options["num_ctx"] = c.numCtx
	}

	jsonBody, err := json.Marshal(ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", unavailable(fmt.Errorf("API request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", unavailable(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", unavailable(fmt.Errorf("API error %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", malformed(fmt.Errorf("failed to unmarshal response: %w", err))
	}

	if !chatResp.Done {
		return "", malformed(fmt.Errorf("incomplete response from Ollama"))
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("purpose", r.Purpose),
		zap.String("model", chatResp.Model),
		zap.Int64("eval_duration", chatResp.EvalDuration),
		zap.Int("eval_count", chatResp.EvalCount))

	return chatResp.Message.Content, nil
}

func unavailable(err error) error {
	return apperrors.NewAIServiceError(providerName, fmt.Errorf("%w: %v", advice.ErrAIServiceUnavailable, err))
}

func malformed(err error) error {
	return apperrors.NewMalformedAIResponseError(providerName, fmt.Errorf("%w: %v", advice.ErrMalformedAIResponse, err))
}
