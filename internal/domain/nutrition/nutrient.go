package nutrition

// Nutrient names a tracked nutrient
type Nutrient string

// Macronutrients and energy
const (
	Calories      Nutrient = "calories"
	Protein       Nutrient = "protein"
	Fats          Nutrient = "fats"
	Carbohydrates Nutrient = "carbohydrates"
	Fiber         Nutrient = "fiber"
)

// Micronutrients
const (
	VitaminA   Nutrient = "vitamin_a"
	VitaminC   Nutrient = "vitamin_c"
	VitaminD   Nutrient = "vitamin_d"
	VitaminB12 Nutrient = "vitamin_b12"
	Calcium    Nutrient = "calcium"
	Iron       Nutrient = "iron"
	Magnesium  Nutrient = "magnesium"
)

// Micronutrients lists the tracked micronutrients in a stable order
var Micronutrients = []Nutrient{VitaminA, VitaminC, VitaminD, VitaminB12, Calcium, Iron, Magnesium}

// Units
const (
	UnitKcal  = "kcal"
	UnitGram  = "g"
	UnitMilli = "mg"
	UnitMicro = "mcg"
)

// NutrientAmount is a quantity with a unit. A nil Value means unknown, which
// is distinct from zero.
type NutrientAmount struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// Amount builds a known amount
func Amount(value float64, unit string) NutrientAmount {
	v := value
	return NutrientAmount{Value: &v, Unit: unit}
}

// Unknown builds an amount with no value
func Unknown(unit string) NutrientAmount {
	return NutrientAmount{Unit: unit}
}

// Present reports whether the amount has a value
func (a NutrientAmount) Present() bool {
	return a.Value != nil
}

// Or returns the value, or fallback when unknown
func (a NutrientAmount) Or(fallback float64) float64 {
	if a.Value == nil {
		return fallback
	}
	return *a.Value
}

// NutritionBreakdown maps nutrients to amounts. It describes either a meal's
// totals or a daily target.
type NutritionBreakdown map[Nutrient]NutrientAmount

// Get returns the value for n and whether it is known
func (b NutritionBreakdown) Get(n Nutrient) (float64, bool) {
	a, ok := b[n]
	if !ok || a.Value == nil {
		return 0, false
	}
	return *a.Value, true
}

// DailyRecommendation is a freshly computed daily target
type DailyRecommendation struct {
	Calories       NutrientAmount     `json:"calories"`
	Protein        NutrientAmount     `json:"protein"`
	Fats           NutrientAmount     `json:"fats"`
	Carbohydrates  NutrientAmount     `json:"carbohydrates"`
	Fiber          NutrientAmount     `json:"fiber"`
	Micronutrients NutritionBreakdown `json:"micronutrients"`

	// Intermediate energy figures, kept for display
	BMR  float64 `json:"bmr"`
	TDEE float64 `json:"tdee"`
}

// Breakdown flattens the recommendation into a single map
func (d *DailyRecommendation) Breakdown() NutritionBreakdown {
	out := NutritionBreakdown{
		Calories:      d.Calories,
		Protein:       d.Protein,
		Fats:          d.Fats,
		Carbohydrates: d.Carbohydrates,
		Fiber:         d.Fiber,
	}
	for n, a := range d.Micronutrients {
		out[n] = a
	}
	return out
}
