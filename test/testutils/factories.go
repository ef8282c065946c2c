// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

// ProfileFactory produces random but valid user profiles
type ProfileFactory struct {
	faker *gofakeit.Faker
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{
		faker: gofakeit.New(seed),
	}
}

// Profile returns a random valid profile
func (f *ProfileFactory) Profile() *nutrition.UserProfile {
	genders := []string{string(nutrition.GenderMale), string(nutrition.GenderFemale), string(nutrition.GenderUnspecified)}
	goals := []string{string(nutrition.GoalLose), string(nutrition.GoalMaintain), string(nutrition.GoalGain)}
	intensities := []string{string(nutrition.IntensityMild), string(nutrition.IntensityModerate), string(nutrition.IntensityAggressive)}

	return &nutrition.UserProfile{
		Age:           f.faker.IntRange(18, 85),
		Gender:        nutrition.Gender(f.faker.RandomString(genders)),
		WeightKg:      f.faker.Float64Range(45, 140),
		HeightCm:      f.faker.Float64Range(145, 205),
		ActivityLevel: nutrition.ActivityLevels[f.faker.IntRange(0, len(nutrition.ActivityLevels)-1)],
		WeightGoal:    nutrition.WeightGoal(f.faker.RandomString(goals)),
		GoalIntensity: nutrition.GoalIntensity(f.faker.RandomString(intensities)),
	}
}

// Meal returns a random meal with every tracked nutrient known
func (f *ProfileFactory) Meal() nutrition.NutritionBreakdown {
	meal := nutrition.NutritionBreakdown{
		nutrition.Calories:      nutrition.Amount(f.faker.Float64Range(0, 2500), nutrition.UnitKcal),
		nutrition.Protein:       nutrition.Amount(f.faker.Float64Range(0, 250), nutrition.UnitGram),
		nutrition.Fats:          nutrition.Amount(f.faker.Float64Range(0, 200), nutrition.UnitGram),
		nutrition.Carbohydrates: nutrition.Amount(f.faker.Float64Range(0, 400), nutrition.UnitGram),
	}
	for _, n := range nutrition.Micronutrients {
		if f.faker.Bool() {
			meal[n] = nutrition.Amount(f.faker.Float64Range(0, 2000), nutrition.UnitMilli)
		}
	}
	return meal
}

// ProfileBuilder provides a fluent interface for building test profiles
type ProfileBuilder struct {
	profile nutrition.UserProfile
}

// NewProfileBuilder starts from a 30 year old, 80 kg, 180 cm moderately
// active man losing weight at moderate intensity
func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{
		profile: nutrition.UserProfile{
			Age:           30,
			Gender:        nutrition.GenderMale,
			WeightKg:      80,
			HeightCm:      180,
			ActivityLevel: nutrition.ActivityModerate,
			WeightGoal:    nutrition.GoalLose,
			GoalIntensity: nutrition.IntensityModerate,
		},
	}
}

// WithAge sets the age
func (b *ProfileBuilder) WithAge(age int) *ProfileBuilder {
	b.profile.Age = age
	return b
}

// WithGender sets the gender
func (b *ProfileBuilder) WithGender(g nutrition.Gender) *ProfileBuilder {
	b.profile.Gender = g
	return b
}

// WithWeight sets the weight in kg
func (b *ProfileBuilder) WithWeight(kg float64) *ProfileBuilder {
	b.profile.WeightKg = kg
	return b
}

// WithHeight sets the height in cm
func (b *ProfileBuilder) WithHeight(cm float64) *ProfileBuilder {
	b.profile.HeightCm = cm
	return b
}

// WithActivity sets the activity level
func (b *ProfileBuilder) WithActivity(level nutrition.ActivityLevel) *ProfileBuilder {
	b.profile.ActivityLevel = level
	return b
}

// WithGoal sets the weight goal and intensity
func (b *ProfileBuilder) WithGoal(goal nutrition.WeightGoal, intensity nutrition.GoalIntensity) *ProfileBuilder {
	b.profile.WeightGoal = goal
	b.profile.GoalIntensity = intensity
	return b
}

// WithAllergies sets declared allergies
func (b *ProfileBuilder) WithAllergies(allergies ...nutrition.Allergy) *ProfileBuilder {
	b.profile.DietaryRestrictions.Allergies = allergies
	return b
}

// WithDisliked sets disliked ingredients
func (b *ProfileBuilder) WithDisliked(ingredients ...string) *ProfileBuilder {
	b.profile.DietaryRestrictions.DislikedIngredients = ingredients
	return b
}

// Build returns a copy of the built profile
func (b *ProfileBuilder) Build() *nutrition.UserProfile {
	p := b.profile
	return &p
}

// MealBuilder builds meal nutrition breakdowns
type MealBuilder struct {
	meal nutrition.NutritionBreakdown
}

// NewMealBuilder starts from an empty meal
func NewMealBuilder() *MealBuilder {
	return &MealBuilder{meal: nutrition.NutritionBreakdown{}}
}

// With sets a known amount
func (b *MealBuilder) With(n nutrition.Nutrient, value float64, unit string) *MealBuilder {
	b.meal[n] = nutrition.Amount(value, unit)
	return b
}

// Macros sets calories, protein, fats and carbohydrates
func (b *MealBuilder) Macros(calories, protein, fats, carbs float64) *MealBuilder {
	return b.
		With(nutrition.Calories, calories, nutrition.UnitKcal).
		With(nutrition.Protein, protein, nutrition.UnitGram).
		With(nutrition.Fats, fats, nutrition.UnitGram).
		With(nutrition.Carbohydrates, carbs, nutrition.UnitGram)
}

// Unknown marks a nutrient as present with no value
func (b *MealBuilder) Unknown(n nutrition.Nutrient, unit string) *MealBuilder {
	b.meal[n] = nutrition.Unknown(unit)
	return b
}

// Build returns the meal
func (b *MealBuilder) Build() nutrition.NutritionBreakdown {
	out := make(nutrition.NutritionBreakdown, len(b.meal))
	for k, v := range b.meal {
		out[k] = v
	}
	return out
}
