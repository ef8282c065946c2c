package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// Supported providers
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// NewProviderClient builds the raw completion client for the configured provider
func NewProviderClient(cfg config.AIConfig, logger *zap.Logger) (outbound.CompletionClient, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
			NumCtx:  cfg.OllamaNumCtx,
		}, logger), nil
	case ProviderOpenAI:
		return openai.NewClient(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
