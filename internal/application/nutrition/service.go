// Package nutrition orchestrates target calculation, meal scoring and verified
// AI advice for the driving adapters.
package nutrition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/application/advice"
	adviceDomain "github.com/alchemorsel/nutrition/internal/domain/advice"
	domain "github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

var tracer = otel.Tracer("github.com/alchemorsel/nutrition/internal/application/nutrition")

// Service implements inbound.NutritionService
type Service struct {
	scorer    *domain.MealScorer
	generator *advice.Generator
	verifier  *advice.Verifier
	metrics   outbound.MetricsRecorder
	logger    *zap.Logger
}

var _ inbound.NutritionService = (*Service)(nil)

// NewService creates a new nutrition service
func NewService(
	scorer *domain.MealScorer,
	generator *advice.Generator,
	verifier *advice.Verifier,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		scorer:    scorer,
		generator: generator,
		verifier:  verifier,
		metrics:   metrics,
		logger:    logger.Named("nutrition-service"),
	}
}

// CalculateTargets computes the daily target for a profile
func (s *Service) CalculateTargets(ctx context.Context, profile *domain.UserProfile) (*domain.DailyRecommendation, error) {
	target, err := domain.ComputeDailyTarget(profile)
	if err != nil {
		s.logger.Debug("Target calculation rejected", zap.Error(err))
		return nil, err
	}
	return target, nil
}

// RateMeal scores a meal against the profile's freshly computed target
func (s *Service) RateMeal(ctx context.Context, cmd inbound.RateMealCommand) (*inbound.MealAssessment, error) {
	if cmd.Meal == nil {
		return nil, fmt.Errorf("%w: meal nutrition is nil", domain.ErrMissingData)
	}
	if cmd.Profile == nil {
		return nil, fmt.Errorf("%w: user profile is nil", domain.ErrMissingData)
	}

	target, err := s.CalculateTargets(ctx, cmd.Profile)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.scorer.ScoreDetailed(target, cmd.Meal, cmd.Ingredients, cmd.Profile)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMealScore(breakdown.Rating.Score, breakdown.Rating.LetterGrade)
	s.logger.Debug("Meal rated",
		zap.Int("score", breakdown.Rating.Score),
		zap.String("grade", breakdown.Rating.LetterGrade),
		zap.Bool("restriction_violated", breakdown.RestrictionViolated),
	)

	return &inbound.MealAssessment{
		Target:    target,
		Rating:    breakdown.Rating,
		Breakdown: breakdown,
	}, nil
}

// GetAIOpinion generates advice for a meal and verifies it. Only missing or
// invalid inputs produce an error; model failures degrade to fallback advice.
func (s *Service) GetAIOpinion(ctx context.Context, cmd inbound.AIOpinionCommand) (*adviceDomain.AIOpinionResponse, error) {
	if cmd.Profile == nil {
		return nil, fmt.Errorf("%w: user profile is nil", domain.ErrMissingData)
	}
	if cmd.Nutrition == nil {
		return nil, fmt.Errorf("%w: meal nutrition is nil", domain.ErrMissingData)
	}
	if err := cmd.Profile.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx, span := tracer.Start(ctx, "nutrition.get_ai_opinion")
	span.SetAttributes(attribute.String("opinion.id", id))
	defer span.End()

	start := time.Now()
	logger := s.logger.With(zap.String("opinion_id", id))

	draft := s.generator.Generate(ctx, cmd.Profile, cmd.Ingredients, cmd.Nutrition)
	response := s.verifier.VerifyAll(ctx, draft.Recommendations)
	response.ID = id
	response.PositiveFeedback = s.screenFeedback(draft.PositiveFeedback)

	s.record(response, time.Since(start))
	logger.Info("AI opinion ready",
		zap.String("draft_source", string(draft.Source)),
		zap.String("verification_status", string(response.VerificationStatus)),
		zap.Int("recommendations", len(response.Recommendations)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return response, nil
}

// VerifyRecommendations runs caller supplied recommendations through verification
func (s *Service) VerifyRecommendations(ctx context.Context, recommendations []string) *adviceDomain.AIOpinionResponse {
	start := time.Now()
	response := s.verifier.VerifyAll(ctx, recommendations)
	response.ID = uuid.NewString()
	s.record(response, time.Since(start))
	return response
}

// screenFeedback replaces feedback that trips the quick filter
func (s *Service) screenFeedback(feedback string) string {
	if feedback == "" {
		return adviceDomain.DefaultPositiveFeedback
	}
	if category, hit := s.verifier.Filter().Check(feedback); hit {
		s.logger.Info("Positive feedback rejected by quick filter", zap.String("category", string(category)))
		return adviceDomain.DefaultPositiveFeedback
	}
	return feedback
}

func (s *Service) record(response *adviceDomain.AIOpinionResponse, elapsed time.Duration) {
	for _, result := range response.Results {
		s.metrics.RecordVerification(string(result.Outcome))
	}
	s.metrics.RecordOpinion(string(response.VerificationStatus), elapsed)
}

type nopMetrics struct{}

func (nopMetrics) RecordAIRequest(string, string, string, time.Duration) {}
func (nopMetrics) RecordVerification(string)                             {}
func (nopMetrics) RecordOpinion(string, time.Duration)                   {}
func (nopMetrics) RecordMealScore(int, string)                           {}
func (nopMetrics) RecordCacheLookup(bool)                                {}
