// Package nutrition contains the nutrition domain: user profiles, nutrient
// breakdowns, daily targets and meal scoring.
package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Gender drives BMR offsets and micronutrient lookups
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// ActivityLevel is ordered from least to most active
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// ActivityLevels lists every level in ascending order
var ActivityLevels = []ActivityLevel{
	ActivitySedentary,
	ActivityLight,
	ActivityModerate,
	ActivityActive,
	ActivityVeryActive,
}

// WeightGoal represents the direction of the user's weight goal
type WeightGoal string

const (
	GoalLose     WeightGoal = "lose"
	GoalMaintain WeightGoal = "maintain"
	GoalGain     WeightGoal = "gain"
)

// GoalIntensity represents how aggressively the goal is pursued
type GoalIntensity string

const (
	IntensityMild       GoalIntensity = "mild"
	IntensityModerate   GoalIntensity = "moderate"
	IntensityAggressive GoalIntensity = "aggressive"
)

// DietaryPreference represents an eating pattern
type DietaryPreference string

const (
	PreferenceNone        DietaryPreference = "none"
	PreferenceVegetarian  DietaryPreference = "vegetarian"
	PreferenceVegan       DietaryPreference = "vegan"
	PreferencePescatarian DietaryPreference = "pescatarian"
	PreferenceKeto        DietaryPreference = "keto"
	PreferencePaleo       DietaryPreference = "paleo"
	PreferenceHalal       DietaryPreference = "halal"
	PreferenceKosher      DietaryPreference = "kosher"
)

// Allergy represents a declared food allergy
type Allergy string

const (
	AllergyGluten    Allergy = "gluten"
	AllergyDairy     Allergy = "dairy"
	AllergyEggs      Allergy = "eggs"
	AllergyPeanuts   Allergy = "peanuts"
	AllergyTreeNuts  Allergy = "tree_nuts"
	AllergySoy       Allergy = "soy"
	AllergyFish      Allergy = "fish"
	AllergyShellfish Allergy = "shellfish"
	AllergySesame    Allergy = "sesame"
)

// DietaryRestrictions groups a user's eating constraints
type DietaryRestrictions struct {
	Preference          DietaryPreference `json:"preference,omitempty" validate:"omitempty,oneof=none vegetarian vegan pescatarian keto paleo halal kosher"`
	Allergies           []Allergy         `json:"allergies,omitempty" validate:"dive,oneof=gluten dairy eggs peanuts tree_nuts soy fish shellfish sesame"`
	DislikedIngredients []string          `json:"disliked_ingredients,omitempty"`
}

// IsEmpty reports whether no restriction is declared
func (r DietaryRestrictions) IsEmpty() bool {
	return (r.Preference == "" || r.Preference == PreferenceNone) &&
		len(r.Allergies) == 0 && len(r.DislikedIngredients) == 0
}

// UserProfile is the caller-owned input for target calculation and scoring
type UserProfile struct {
	Age                 int                 `json:"age" validate:"gt=0"`
	Gender              Gender              `json:"gender" validate:"oneof=male female unspecified"`
	WeightKg            float64             `json:"weight_kg" validate:"gt=0"`
	HeightCm            float64             `json:"height_cm" validate:"gt=0"`
	ActivityLevel       ActivityLevel       `json:"activity_level" validate:"oneof=sedentary light moderate active very_active"`
	WeightGoal          WeightGoal          `json:"weight_goal" validate:"oneof=lose maintain gain"`
	GoalIntensity       GoalIntensity       `json:"goal_intensity" validate:"oneof=mild moderate aggressive"`
	DietaryRestrictions DietaryRestrictions `json:"dietary_restrictions"`
}

var validate = validator.New()

// Validate checks numeric ranges and enum membership.
// Every failure wraps ErrInvalidProfile.
func (p *UserProfile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	return nil
}

// IsMale reports whether male reference values apply
func (p *UserProfile) IsMale() bool {
	return p.Gender == GenderMale
}
