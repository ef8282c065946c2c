// Package advice generates dietary advice with a generative model and
// verifies it before it reaches a user.
package advice

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

var tracer = otel.Tracer("github.com/alchemorsel/nutrition/internal/application/advice")

// GeneratorConfig holds sampling settings for the generation call
type GeneratorConfig struct {
	Temperature float64
	MaxTokens   int
}

// DefaultGeneratorConfig returns the settings used when none are configured
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{Temperature: 0.7, MaxTokens: 500}
}

// Generator asks the model for feedback and recommendations on a meal.
// It performs no safety filtering; see Verifier.
type Generator struct {
	client outbound.CompletionClient
	config GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a new advice generator
func NewGenerator(client outbound.CompletionClient, config GeneratorConfig, logger *zap.Logger) *Generator {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultGeneratorConfig().MaxTokens
	}
	return &Generator{
		client: client,
		config: config,
		logger: logger.Named("advice-generator"),
	}
}

// Generate makes a single model call and parses the reply. It never returns an
// error: transport and parse failures degrade to the default draft.
func (g *Generator) Generate(ctx context.Context, profile *nutrition.UserProfile, ingredients []string, meal nutrition.NutritionBreakdown) domain.AdviceDraft {
	ctx, span := tracer.Start(ctx, "advice.generate")
	defer span.End()

	if profile == nil {
		g.logger.Warn("No profile supplied, returning default advice")
		return DefaultDraft()
	}

	start := time.Now()
	raw, err := g.client.Complete(ctx, outbound.CompletionRequest{
		Purpose:     outbound.PurposeGenerate,
		System:      adviceSystemPrompt,
		Prompt:      buildAdvicePrompt(profile, ingredients, meal),
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		g.logger.Warn("Advice generation failed, using defaults",
			zap.String("stage", outbound.PurposeGenerate),
			zap.String("provider", g.client.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		span.RecordError(err)
		return DefaultDraft()
	}

	draft, err := ParseAdviceResponse(raw)
	if err != nil {
		g.logger.Warn("Advice response could not be parsed, using defaults",
			zap.String("stage", outbound.PurposeGenerate),
			zap.Int("response_length", len(raw)),
			zap.Error(err),
		)
		span.RecordError(err)
	}

	span.SetAttributes(
		attribute.String("advice.source", string(draft.Source)),
		attribute.Int("advice.recommendations", len(draft.Recommendations)),
	)

	g.logger.Debug("Advice generated",
		zap.String("source", string(draft.Source)),
		zap.Int("recommendations", len(draft.Recommendations)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return draft
}
