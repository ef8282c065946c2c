// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

// NutritionService defines the use cases driven by the HTTP layer
type NutritionService interface {
	CalculateTargets(ctx context.Context, profile *nutrition.UserProfile) (*nutrition.DailyRecommendation, error)
	RateMeal(ctx context.Context, cmd RateMealCommand) (*MealAssessment, error)
	GetAIOpinion(ctx context.Context, cmd AIOpinionCommand) (*advice.AIOpinionResponse, error)
	VerifyRecommendations(ctx context.Context, recommendations []string) *advice.AIOpinionResponse
}

// RateMealCommand carries a meal to score for a user
type RateMealCommand struct {
	Profile     *nutrition.UserProfile
	Meal        nutrition.NutritionBreakdown
	Ingredients []string
}

// AIOpinionCommand carries the inputs of advice generation
type AIOpinionCommand struct {
	Profile     *nutrition.UserProfile
	Ingredients []string
	Nutrition   nutrition.NutritionBreakdown
}

// MealAssessment is the rating of a meal together with the target it was scored against
type MealAssessment struct {
	Target    *nutrition.DailyRecommendation `json:"target"`
	Rating    nutrition.MealRating           `json:"rating"`
	Breakdown nutrition.ScoreBreakdown       `json:"breakdown"`
}
