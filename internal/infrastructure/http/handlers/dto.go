package handlers

import (
	"fmt"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

// TargetsRequest is the body of POST /api/v1/targets
type TargetsRequest struct {
	Profile *nutrition.UserProfile `json:"profile" validate:"required,structonly"`
}

// ScoreMealRequest is the body of POST /api/v1/meals/score
type ScoreMealRequest struct {
	Profile     *nutrition.UserProfile `json:"profile" validate:"required,structonly"`
	Meal        MealNutrition          `json:"meal" validate:"required,min=1"`
	Ingredients []string               `json:"ingredients" validate:"max=100,dive,max=200"`
}

// AdviceRequest is the body of POST /api/v1/advice
type AdviceRequest struct {
	Profile     *nutrition.UserProfile `json:"profile" validate:"required,structonly"`
	Ingredients []string               `json:"ingredients" validate:"max=100,dive,max=200"`
	Nutrition   MealNutrition          `json:"nutrition" validate:"required,min=1"`
}

// VerifyRequest is the body of POST /api/v1/advice/verify
type VerifyRequest struct {
	Recommendations []string `json:"recommendations" validate:"required,min=1,max=10,dive,max=1000"`
}

// MealNutrition is the wire form of a meal: nutrient name to amount in the
// nutrient's canonical unit. A null amount means unknown.
type MealNutrition map[string]*float64

var canonicalUnits = map[nutrition.Nutrient]string{
	nutrition.Calories:      nutrition.UnitKcal,
	nutrition.Protein:       nutrition.UnitGram,
	nutrition.Fats:          nutrition.UnitGram,
	nutrition.Carbohydrates: nutrition.UnitGram,
	nutrition.Fiber:         nutrition.UnitGram,
	nutrition.VitaminA:      nutrition.UnitMicro,
	nutrition.VitaminC:      nutrition.UnitMilli,
	nutrition.VitaminD:      nutrition.UnitMicro,
	nutrition.VitaminB12:    nutrition.UnitMicro,
	nutrition.Calcium:       nutrition.UnitMilli,
	nutrition.Iron:          nutrition.UnitMilli,
	nutrition.Magnesium:     nutrition.UnitMilli,
}

// Breakdown converts the wire form, rejecting unknown nutrients and negative amounts
func (m MealNutrition) Breakdown() (nutrition.NutritionBreakdown, error) {
	out := make(nutrition.NutritionBreakdown, len(m))
	for name, value := range m {
		n := nutrition.Nutrient(name)
		unit, ok := canonicalUnits[n]
		if !ok {
			return nil, fmt.Errorf("unknown nutrient %q", name)
		}
		if value == nil {
			out[n] = nutrition.Unknown(unit)
			continue
		}
		if *value < 0 {
			return nil, fmt.Errorf("nutrient %q must not be negative", name)
		}
		out[n] = nutrition.Amount(*value, unit)
	}
	return out, nil
}
