package nutrition

import (
	"fmt"
	"math"
)

// Component weights of the composite score
const (
	WeightProtein        = 0.25
	WeightFats           = 0.20
	WeightCarbohydrates  = 0.20
	WeightMicronutrients = 0.20
	WeightGoalAlignment  = 0.15
)

const (
	proteinCap       = 120
	macroCap         = 100
	micronutrientCap = 150

	neutralMicronutrientScore = 75.0
	baseGoalAlignment         = 80

	loseProteinBoost = 1.1
	loseCarbFactor   = 0.9
	gainCarbFactor   = 1.05
)

// MealRating is the scored outcome of a single meal
type MealRating struct {
	Score       int    `json:"score"`
	LetterGrade string `json:"letter_grade"`
}

// ScoreBreakdown exposes the individual sub-scores behind a rating
type ScoreBreakdown struct {
	Protein             int        `json:"protein"`
	Fats                int        `json:"fats"`
	Carbohydrates       int        `json:"carbohydrates"`
	Micronutrients      float64    `json:"micronutrients"`
	GoalAlignment       int        `json:"goal_alignment"`
	RestrictionViolated bool       `json:"restriction_violated"`
	Rating              MealRating `json:"rating"`
}

type gradeThreshold struct {
	min   int
	grade string
}

// gradeTable is scanned from the highest threshold down
var gradeTable = []gradeThreshold{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// LetterGrade maps a 0-100 score to its letter grade
func LetterGrade(score int) string {
	for _, t := range gradeTable {
		if score >= t.min {
			return t.grade
		}
	}
	return "F"
}

// MealScorer compares a meal against a daily target. It holds no mutable
// state and is safe for concurrent use.
type MealScorer struct {
	violates RestrictionPredicate
}

// ScorerOption configures a MealScorer
type ScorerOption func(*MealScorer)

// WithRestrictionPredicate replaces the restriction-violation check
func WithRestrictionPredicate(p RestrictionPredicate) ScorerOption {
	return func(s *MealScorer) {
		if p != nil {
			s.violates = p
		}
	}
}

// NewMealScorer creates a scorer using IngredientRestrictionViolation unless overridden
func NewMealScorer(opts ...ScorerOption) *MealScorer {
	s := &MealScorer{violates: IngredientRestrictionViolation}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates a meal without an ingredient list, so no restriction can be flagged
func (s *MealScorer) Score(target *DailyRecommendation, meal NutritionBreakdown, profile *UserProfile) (MealRating, error) {
	return s.ScoreMeal(target, meal, nil, profile)
}

// ScoreMeal rates a meal, checking ingredients against the profile's restrictions
func (s *MealScorer) ScoreMeal(target *DailyRecommendation, meal NutritionBreakdown, ingredients []string, profile *UserProfile) (MealRating, error) {
	detail, err := s.ScoreDetailed(target, meal, ingredients, profile)
	if err != nil {
		return MealRating{}, err
	}
	return detail.Rating, nil
}

// ScoreDetailed returns the rating together with each sub-score.
//
// A macronutrient the meal does not report counts as zero consumption in both
// the ratio scores and the goal-alignment rules. Only micronutrients skip
// unreported values, since their sub-score averages over what is present.
func (s *MealScorer) ScoreDetailed(target *DailyRecommendation, meal NutritionBreakdown, ingredients []string, profile *UserProfile) (ScoreBreakdown, error) {
	if target == nil {
		return ScoreBreakdown{}, fmt.Errorf("%w: daily target is nil", ErrMissingData)
	}
	if meal == nil {
		return ScoreBreakdown{}, fmt.Errorf("%w: meal nutrition is nil", ErrMissingData)
	}
	if profile == nil {
		return ScoreBreakdown{}, fmt.Errorf("%w: user profile is nil", ErrMissingData)
	}

	targetProtein, err := requiredTarget(target.Protein, Protein)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	targetFats, err := requiredTarget(target.Fats, Fats)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	targetCarbs, err := requiredTarget(target.Carbohydrates, Carbohydrates)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	targetCalories, err := requiredTarget(target.Calories, Calories)
	if err != nil {
		return ScoreBreakdown{}, err
	}

	protein, _ := meal.Get(Protein)
	fats, _ := meal.Get(Fats)
	carbs, _ := meal.Get(Carbohydrates)
	calories, _ := meal.Get(Calories)

	out := ScoreBreakdown{}

	boost := 1.0
	if profile.WeightGoal == GoalLose {
		boost = loseProteinBoost
	}
	out.Protein = ratioScore(protein, targetProtein, boost, proteinCap)
	out.Fats = ratioScore(fats, targetFats, 1, macroCap)

	carbFactor := 1.0
	switch profile.WeightGoal {
	case GoalLose:
		carbFactor = loseCarbFactor
	case GoalGain:
		carbFactor = gainCarbFactor
	}
	out.Carbohydrates = ratioScore(carbs, targetCarbs, carbFactor, macroCap)

	out.Micronutrients = micronutrientScore(target.Micronutrients, meal)

	out.RestrictionViolated = s.violates != nil && s.violates(ingredients, profile.DietaryRestrictions)

	alignment := baseGoalAlignment
	switch proteinShare := protein / targetProtein; {
	case proteinShare < 0.20:
		alignment -= 15
	case proteinShare > 0.40:
		alignment += 10
	}
	calorieShare := calories / targetCalories
	if profile.WeightGoal == GoalLose && calorieShare > 0.40 {
		alignment -= 20
	}
	if profile.WeightGoal == GoalGain && calorieShare < 0.30 {
		alignment -= 15
	}
	if out.RestrictionViolated {
		alignment -= 30
	}
	out.GoalAlignment = clampInt(alignment, 0, 100)

	total := float64(out.Protein)*WeightProtein +
		float64(out.Fats)*WeightFats +
		float64(out.Carbohydrates)*WeightCarbohydrates +
		out.Micronutrients*WeightMicronutrients +
		float64(out.GoalAlignment)*WeightGoalAlignment

	score := clampInt(int(math.Round(total)), 0, 100)
	out.Rating = MealRating{Score: score, LetterGrade: LetterGrade(score)}

	return out, nil
}

func requiredTarget(a NutrientAmount, n Nutrient) (float64, error) {
	if a.Value == nil || *a.Value <= 0 {
		return 0, fmt.Errorf("%w: target %s is not set", ErrMissingData, n)
	}
	return *a.Value, nil
}

// ratioScore is min(limit, round(100 * consumed/target * factor)), floored at 0
func ratioScore(consumed, target, factor float64, limit int) int {
	return clampInt(int(math.Round(100*consumed/target*factor)), 0, limit)
}

// micronutrientScore averages per-nutrient coverage over the micronutrients the
// meal reports. With none reported it returns a neutral 75.
func micronutrientScore(targets, meal NutritionBreakdown) float64 {
	var sum float64
	var count int
	for _, n := range Micronutrients {
		consumed, ok := meal.Get(n)
		if !ok {
			continue
		}
		t, ok := targets.Get(n)
		if !ok || t <= 0 {
			continue
		}
		sum += math.Max(0, math.Min(micronutrientCap, 100*consumed/t))
		count++
	}
	if count == 0 {
		return neutralMicronutrientScore
	}
	return sum / float64(count)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
