// Package openai provides a completion client for OpenAI-compatible chat APIs
package openai

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

const providerName = "openai"

// Config holds connection settings for an OpenAI-compatible endpoint
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client implements outbound.CompletionClient using the chat completions API
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

var (
	_ outbound.CompletionClient = (*Client)(nil)
	_ outbound.HealthCheckable  = (*Client)(nil)
)

// NewClient creates a new OpenAI client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger = logger.Named("openai-client")
	if cfg.APIKey == "" {
		logger.Warn("OpenAI API key not configured, requests will likely be rejected",
			zap.String("base_url", cfg.BaseURL))
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// OpenAI API structures
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Name identifies the provider
func (c *Client) Name() string {
	return providerName
}

// Complete sends one chat completion request
func (c *Client) Complete(ctx context.Context, r outbound.CompletionRequest) (string, error) {
	messages := make([]Message, 0, 2)
	if r.System != "" {
		messages = append(messages, Message{Role: "system", Content: r.System})
	}
	messages = append(messages, Message{Role: "user", Content: r.Prompt})

	reqBody := ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

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
		return "", unavailable(fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", malformed(fmt.Errorf("failed to unmarshal response: %w", err))
	}

	if len(chatResp.Choices) == 0 {
		return "", malformed(fmt.Errorf("no response choices returned"))
	}

	c.logger.Debug("OpenAI API call successful",
		zap.String("purpose", r.Purpose),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	return chatResp.Choices[0].Message.Content, nil
}

// HealthCheck verifies the endpoint answers the models listing
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai health check failed with status %d", resp.StatusCode)
	}
	return nil
}

func unavailable(err error) error {
	return apperrors.NewAIServiceError(providerName, fmt.Errorf("%w: %v", advice.ErrAIServiceUnavailable, err))
}

func malformed(err error) error {
	return apperrors.NewMalformedAIResponseError(providerName, fmt.Errorf("%w: %v", advice.ErrMalformedAIResponse, err))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
