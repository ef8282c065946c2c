package advice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickFilter_RejectsDangerousAdvice(t *testing.T) {
	f := NewQuickFilter()

	cases := map[string]FilterCategory{
		"You should fast for 48 hours to reset your metabolism.":    CategoryExtremeFasting,
		"Try a 3-day water fast once a month.":                       CategoryExtremeFasting,
		"Fasting for several days will speed things up.":             CategoryExtremeFasting,
		"Stop eating entirely after lunch.":                          CategoryExtremeFasting,
		"Eliminate all carbs from your diet.":                        CategoryMacroElimination,
		"Cut out all fats to lose weight faster.":                    CategoryMacroElimination,
		"Completely avoid carbohydrates.":                            CategoryMacroElimination,
		"Follow a zero-carb diet for best results.":                  CategoryMacroElimination,
		"This miracle berry melts pounds away.":                      CategoryMiracleClaim,
		"Green tea gives instant weight loss.":                       CategoryMiracleClaim,
		"Lose 5 kg overnight with this trick.":                       CategoryMiracleClaim,
		"Guaranteed results if you follow this plan.":                CategoryMiracleClaim,
		"Start a juice cleanse tomorrow.":                            CategoryDetox,
		"A detox tea will help.":                                     CategoryDetox,
		"Lemon water flushes out toxins.":                            CategoryDetox,
		"Completely remove fats from your meals.":                    CategoryMacroElimination,
		"Avoid all carbs and sugar for a month.":                     CategoryMacroElimination,
		"This green smoothie works like a miracle.":                  CategoryMiracleClaim,
		"A colon cleanse resets your gut.":                           CategoryDetox,
		"Cleanse your body with lemon juice.":                        CategoryDetox,
	}

	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			got, hit := f.Check(text)
			assert.True(t, hit, "expected %q to be rejected", text)
			assert.Equal(t, want, got)
		})
	}
}

func TestQuickFilter_AllowsSoundAdvice(t *testing.T) {
	f := NewQuickFilter()

	safe := []string{
		"Add a side of steamed broccoli for extra fiber.",
		"Include healthy fats such as olive oil or avocado.",
		"Swap refined grains for whole grains like brown rice.",
		"Aim for about 25 grams of fiber per day.",
		"A 12 hour overnight gap between dinner and breakfast is fine for most people.",
		"Breakfast can break your overnight fast with some protein.",
		"Remove all fat from the chicken before roasting.",
		"Drop all fat-heavy sauces in favor of salsa.",
		"There is no miracle food, so focus on overall habits.",
		"Sip water between courses to cleanse your palate.",
	}

	for _, text := range safe {
		t.Run(text, func(t *testing.T) {
			category, hit := f.Check(text)
			assert.False(t, hit, "unexpected category %q", category)
		})
	}
}
