package advice

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// VerifierConfig holds settings for the semantic check and correction calls
type VerifierConfig struct {
	CheckTemperature      float64
	CheckMaxTokens        int
	CorrectionTemperature float64
	CorrectionMaxTokens   int
	MaxConcurrency        int
}

// DefaultVerifierConfig returns the settings used when none are configured
func DefaultVerifierConfig() VerifierConfig {
	return VerifierConfig{
		CheckTemperature:      0.1,
		CheckMaxTokens:        60,
		CorrectionTemperature: 0.3,
		CorrectionMaxTokens:   200,
		MaxConcurrency:        3,
	}
}

// Verifier screens candidate advice with the quick filter and a semantic model check
type Verifier struct {
	client outbound.CompletionClient
	filter *QuickFilter
	pool   []string
	picker domain.FallbackPicker
	config VerifierConfig
	logger *zap.Logger
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithFallbackPool swaps the pre-approved fallback sentences
func WithFallbackPool(pool []string) VerifierOption {
	return func(v *Verifier) {
		if len(pool) > 0 {
			v.pool = pool
		}
	}
}

// WithFallbackPicker swaps the fallback selection strategy
func WithFallbackPicker(picker domain.FallbackPicker) VerifierOption {
	return func(v *Verifier) {
		if picker != nil {
			v.picker = picker
		}
	}
}

// NewVerifier creates a new advice verifier
func NewVerifier(client outbound.CompletionClient, config VerifierConfig, logger *zap.Logger, opts ...VerifierOption) *Verifier {
	defaults := DefaultVerifierConfig()
	if config.CheckMaxTokens <= 0 {
		config.CheckMaxTokens = defaults.CheckMaxTokens
	}
	if config.CorrectionMaxTokens <= 0 {
		config.CorrectionMaxTokens = defaults.CorrectionMaxTokens
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}

	v := &Verifier{
		client: client,
		filter: NewQuickFilter(),
		pool:   domain.FallbackAdvice,
		picker: domain.NewRoundRobinPicker(),
		config: config,
		logger: logger.Named("advice-verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Filter exposes the quick filter used by this verifier
func (v *Verifier) Filter() *QuickFilter {
	return v.filter
}

// Fallback returns one entry of the fallback pool
func (v *Verifier) Fallback() string {
	return v.picker.Pick(v.pool)
}

// Verify runs the per-candidate state machine. It never returns an error:
// any failure maps to a fallback result.
func (v *Verifier) Verify(ctx context.Context, text string) domain.VerificationResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.VerificationResult{IsValid: false, Reason: "empty recommendation", Outcome: domain.OutcomeEmpty}
	}

	if category, hit := v.filter.Check(text); hit {
		v.logger.Info("Advice rejected by quick filter", zap.String("category", string(category)))
		return domain.VerificationResult{
			IsValid:         false,
			CorrectedAdvice: domain.NutritionistConsultAdvice,
			Reason:          string(category),
			Outcome:         domain.OutcomeQuickFilter,
		}
	}

	raw, err := v.client.Complete(ctx, outbound.CompletionRequest{
		Purpose:     outbound.PurposeSemanticCheck,
		System:      semanticCheckSystemPrompt,
		Prompt:      buildSemanticCheckPrompt(text),
		Temperature: v.config.CheckTemperature,
		MaxTokens:   v.config.CheckMaxTokens,
	})
	if err != nil {
		v.logger.Warn("Semantic check failed, using fallback",
			zap.String("stage", outbound.PurposeSemanticCheck),
			zap.Error(err),
		)
		return v.fallback(domain.ReasonServiceFailed, domain.OutcomeServiceFailed)
	}

	verdict, reason, err := parseVerdict(raw)
	if err != nil {
		v.logger.Warn("Semantic check reply not understood, using fallback",
			zap.String("stage", outbound.PurposeSemanticCheck),
			zap.Error(err),
		)
		return v.fallback(domain.ReasonServiceFailed, domain.OutcomeServiceFailed)
	}

	switch verdict {
	case verdictValid:
		return domain.VerificationResult{IsValid: true, Outcome: domain.OutcomeValid}
	case verdictUncertain:
		return v.fallback(domain.ReasonUncertain, domain.OutcomeUncertain)
	}

	corrected, err := v.correct(ctx, text, reason)
	if err != nil {
		v.logger.Warn("Correction failed, using fallback",
			zap.String("stage", outbound.PurposeCorrection),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return v.fallback(reason, domain.OutcomeCorrectionFallback)
	}

	return domain.VerificationResult{
		IsValid:         false,
		CorrectedAdvice: corrected,
		Reason:          reason,
		Outcome:         domain.OutcomeCorrected,
	}
}

// VerifyAll verifies up to MaxRecommendations candidates concurrently and
// assembles the response in input order. The response always carries at
// least one recommendation.
func (v *Verifier) VerifyAll(ctx context.Context, candidates []string) *domain.AIOpinionResponse {
	ctx, span := tracer.Start(ctx, "advice.verify_all")
	defer span.End()

	if len(candidates) > domain.MaxRecommendations {
		v.logger.Debug("Truncating candidates",
			zap.Int("received", len(candidates)),
			zap.Int("kept", domain.MaxRecommendations),
		)
		candidates = candidates[:domain.MaxRecommendations]
	}

	results := make([]domain.VerificationResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(v.config.MaxConcurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			results[i] = v.Verify(ctx, candidate)
			return nil
		})
	}
	_ = g.Wait()

	response := &domain.AIOpinionResponse{
		Recommendations:    make([]string, 0, len(candidates)),
		VerificationStatus: domain.StatusOriginal,
		Results:            results,
	}
	for i, result := range results {
		if !result.IsValid {
			response.VerificationStatus = domain.StatusModified
		}
		if text, ok := result.Surfaced(strings.TrimSpace(candidates[i])); ok {
			response.Recommendations = append(response.Recommendations, text)
		}
	}

	if len(response.Recommendations) == 0 {
		response.Recommendations = append(response.Recommendations, v.Fallback())
		response.VerificationStatus = domain.StatusModified
	}

	span.SetAttributes(
		attribute.Int("advice.candidates", len(candidates)),
		attribute.String("advice.status", string(response.VerificationStatus)),
	)

	return response
}

func (v *Verifier) fallback(reason string, outcome domain.VerificationOutcome) domain.VerificationResult {
	return domain.VerificationResult{
		IsValid:         false,
		CorrectedAdvice: v.Fallback(),
		Reason:          reason,
		Outcome:         outcome,
	}
}

// correct asks the model to rewrite rejected advice. A reply that is empty or
// trips the quick filter counts as a failed correction.
func (v *Verifier) correct(ctx context.Context, text, reason string) (string, error) {
	raw, err := v.client.Complete(ctx, outbound.CompletionRequest{
		Purpose:     outbound.PurposeCorrection,
		System:      correctionSystemPrompt,
		Prompt:      buildCorrectionPrompt(text, reason),
		Temperature: v.config.CorrectionTemperature,
		MaxTokens:   v.config.CorrectionMaxTokens,
	})
	if err != nil {
		return "", err
	}

	corrected := cleanCompletion(raw)
	if corrected == "" {
		return "", fmt.Errorf("%w: empty correction", domain.ErrMalformedAIResponse)
	}
	if category, hit := v.filter.Check(corrected); hit {
		return "", fmt.Errorf("correction tripped quick filter: %s", category)
	}
	return corrected, nil
}

type verdict int

const (
	verdictValid verdict = iota
	verdictInvalid
	verdictUncertain
)

// verdictPattern matches a whole verdict word at the start of the first line
var verdictPattern = regexp.MustCompile(`(?i)^(VALID|INVALID|UNCERTAIN)\b(.*)$`)

// parseVerdict reads VALID, INVALID: <reason> or UNCERTAIN from the first line
func parseVerdict(raw string) (verdict, string, error) {
	text := cleanCompletion(raw)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(strings.Trim(text, "*\"'` "))

	m := verdictPattern.FindStringSubmatch(text)
	if m == nil {
		return verdictUncertain, "", fmt.Errorf("%w: unexpected verdict %q", domain.ErrMalformedAIResponse, truncate(text, 40))
	}

	switch strings.ToUpper(m[1]) {
	case "INVALID":
		reason := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[2]), ":-"))
		if reason == "" {
			reason = "judged unsound by reviewer"
		}
		return verdictInvalid, reason, nil
	case "UNCERTAIN":
		return verdictUncertain, "", nil
	default:
		return verdictValid, "", nil
	}
}

// IsVerdict reports whether a semantic check reply carries a verdict the
// verifier understands
func IsVerdict(raw string) bool {
	_, _, err := parseVerdict(raw)
	return err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
