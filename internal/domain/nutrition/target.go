package nutrition

import (
	"fmt"
	"math"
)

// activityFactors maps activity levels to their TDEE multiplier
var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// goalAdjustments holds the daily kcal offset per goal and intensity
var goalAdjustments = map[WeightGoal]map[GoalIntensity]float64{
	GoalLose: {
		IntensityMild:       -250,
		IntensityModerate:   -500,
		IntensityAggressive: -1000,
	},
	GoalMaintain: {
		IntensityMild:       0,
		IntensityModerate:   0,
		IntensityAggressive: 0,
	},
	GoalGain: {
		IntensityMild:       200,
		IntensityModerate:   400,
		IntensityAggressive: 800,
	},
}

// proteinFactors is grams of protein per kg of body weight
var proteinFactors = map[WeightGoal]float64{
	GoalLose:     2.2,
	GoalMaintain: 1.8,
	GoalGain:     1.6,
}

const (
	fatCalorieShare = 0.25
	kcalPerGramFat  = 9
	kcalPerGramPC   = 4

	fiberMale  = 38
	fiberOther = 25
)

// micronutrientRDA is a reference daily allowance split by sex
type micronutrientRDA struct {
	male  float64
	other float64
	unit  string
}

// rdaTable holds the sex-keyed RDAs. Calcium and iron also depend on age and
// are resolved in micronutrientTargets.
var rdaTable = map[Nutrient]micronutrientRDA{
	VitaminA:   {male: 900, other: 700, unit: UnitMicro},
	VitaminC:   {male: 90, other: 75, unit: UnitMilli},
	VitaminD:   {male: 15, other: 15, unit: UnitMicro},
	VitaminB12: {male: 2.4, other: 2.4, unit: UnitMicro},
	Magnesium:  {male: 420, other: 320, unit: UnitMilli},
}

// ActivityFactor returns the TDEE multiplier for a level
func ActivityFactor(level ActivityLevel) (float64, error) {
	f, ok := activityFactors[level]
	if !ok {
		return 0, fmt.Errorf("%w: unknown activity level %q", ErrInvalidProfile, level)
	}
	return f, nil
}

// GoalAdjustment returns the kcal offset for a goal and intensity
func GoalAdjustment(goal WeightGoal, intensity GoalIntensity) (float64, error) {
	byIntensity, ok := goalAdjustments[goal]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weight goal %q", ErrInvalidProfile, goal)
	}
	adj, ok := byIntensity[intensity]
	if !ok {
		return 0, fmt.Errorf("%w: unknown goal intensity %q", ErrInvalidProfile, intensity)
	}
	return adj, nil
}

// BMR computes basal metabolic rate with the Mifflin-St Jeor equation
func BMR(p *UserProfile) float64 {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.IsMale() {
		return bmr + 5
	}
	return bmr - 161
}

// ComputeDailyTarget derives energy, macro and micronutrient targets.
// It is a pure function: equal profiles yield equal targets.
func ComputeDailyTarget(p *UserProfile) (*DailyRecommendation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	factor, err := ActivityFactor(p.ActivityLevel)
	if err != nil {
		return nil, err
	}
	adjustment, err := GoalAdjustment(p.WeightGoal, p.GoalIntensity)
	if err != nil {
		return nil, err
	}

	bmr := BMR(p)
	tdee := bmr * factor

	calories := math.Round(tdee + adjustment)
	protein := math.Round(p.WeightKg * proteinFactors[p.WeightGoal])
	fats := math.Round(fatCalorieShare * calories / kcalPerGramFat)
	carbs := math.Round((calories - protein*kcalPerGramPC - fats*kcalPerGramFat) / kcalPerGramPC)

	fiber := float64(fiberOther)
	if p.IsMale() {
		fiber = fiberMale
	}

	return &DailyRecommendation{
		Calories:       Amount(calories, UnitKcal),
		Protein:        Amount(protein, UnitGram),
		Fats:           Amount(fats, UnitGram),
		Carbohydrates:  Amount(carbs, UnitGram),
		Fiber:          Amount(fiber, UnitGram),
		Micronutrients: micronutrientTargets(p),
		BMR:            bmr,
		TDEE:           tdee,
	}, nil
}

func micronutrientTargets(p *UserProfile) NutritionBreakdown {
	out := make(NutritionBreakdown, len(Micronutrients))
	for n, rda := range rdaTable {
		v := rda.other
		if p.IsMale() {
			v = rda.male
		}
		out[n] = Amount(v, rda.unit)
	}

	calcium := 1000.0
	if p.Age > 50 {
		calcium = 1200
	}
	out[Calcium] = Amount(calcium, UnitMilli)

	// Non-male profiles share the female reference values
	iron := 8.0
	if !p.IsMale() && p.Age < 50 {
		iron = 18
	}
	out[Iron] = Amount(iron, UnitMilli)

	return out
}
