package nutrition

import (
	"regexp"
	"strings"
)

// RestrictionPredicate reports whether a meal's ingredients violate the
// user's restrictions. Given the ingredient list and restrictions it returns
// true if any disliked ingredient or allergen is present.
type RestrictionPredicate func(ingredients []string, restrictions DietaryRestrictions) bool

// NoRestrictionViolation never reports a violation
func NoRestrictionViolation([]string, DietaryRestrictions) bool {
	return false
}

type allergenRule struct {
	keywords []string
	// phrases that contain a keyword but are not the allergen
	exempt []string
	// qualifiers that mark a whole ingredient as safe when followed by "-free"
	freeOf []string
}

var allergenRules = map[Allergy]allergenRule{
	AllergyGluten: {
		keywords: []string{"wheat", "wholewheat", "barley", "rye", "gluten", "bread", "pasta", "flour", "couscous", "seitan", "semolina", "spelt"},
		exempt:   []string{"rice flour", "almond flour", "coconut flour", "buckwheat", "rye whiskey"},
		freeOf:   []string{"gluten", "wheat"},
	},
	AllergyDairy: {
		keywords: []string{"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "whey", "casein", "ghee"},
		exempt: []string{
			"peanut butter", "almond butter", "cashew butter", "cocoa butter", "shea butter", "butternut", "butter bean",
			"coconut milk", "almond milk", "oat milk", "soy milk", "rice milk", "coconut cream", "cream of tartar",
		},
		freeOf: []string{"dairy", "lactose", "milk"},
	},
	AllergyEggs: {
		keywords: []string{"egg", "mayonnaise", "meringue"},
		exempt:   []string{"eggplant"},
		freeOf:   []string{"egg"},
	},
	AllergyPeanuts: {
		keywords: []string{"peanut", "groundnut"},
		freeOf:   []string{"peanut", "nut"},
	},
	AllergyTreeNuts: {
		keywords: []string{"almond", "walnut", "cashew", "pecan", "pistachio", "hazelnut", "macadamia", "brazil nut"},
		freeOf:   []string{"nut", "tree nut"},
	},
	AllergySoy: {
		keywords: []string{"soy", "tofu", "tempeh", "edamame", "miso"},
		freeOf:   []string{"soy"},
	},
	AllergyFish: {
		keywords: []string{"fish", "salmon", "tuna", "cod", "anchovy", "anchovies", "sardine", "trout", "mackerel", "tilapia", "halibut"},
		exempt:   []string{"shellfish"},
		freeOf:   []string{"fish"},
	},
	AllergyShellfish: {
		keywords: []string{"shellfish", "shrimp", "prawn", "crab", "lobster", "scallop", "mussel", "clam", "oyster"},
		exempt:   []string{"crab apple", "crabapple", "oyster mushroom"},
		freeOf:   []string{"shellfish"},
	},
	AllergySesame: {
		keywords: []string{"sesame", "tahini"},
		freeOf:   []string{"sesame"},
	},
}

type allergenMatcher struct {
	keywords *regexp.Regexp
	free     *regexp.Regexp
	exempt   []string
}

var allergenMatchers = compileAllergenRules(allergenRules)

// compileAllergenRules anchors every keyword at a word start so "egg" finds
// "eggs" and "egg yolk" but not "veggie"
func compileAllergenRules(rules map[Allergy]allergenRule) map[Allergy]allergenMatcher {
	matchers := make(map[Allergy]allergenMatcher, len(rules))
	for allergy, rule := range rules {
		m := allergenMatcher{
			keywords: regexp.MustCompile(`\b(?:` + quoteAll(rule.keywords) + `)`),
			exempt:   rule.exempt,
		}
		if len(rule.freeOf) > 0 {
			m.free = regexp.MustCompile(`\b(?:` + quoteAll(rule.freeOf) + `)[- ]?free\b`)
		}
		matchers[allergy] = m
	}
	return matchers
}

func quoteAll(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// IngredientRestrictionViolation matches ingredients case-insensitively
// against disliked ingredients and allergen keywords. Matches start at a
// word boundary.
func IngredientRestrictionViolation(ingredients []string, restrictions DietaryRestrictions) bool {
	disliked := make([]*regexp.Regexp, 0, len(restrictions.DislikedIngredients))
	for _, d := range restrictions.DislikedIngredients {
		if d = normalize(d); d != "" {
			disliked = append(disliked, regexp.MustCompile(`\b`+regexp.QuoteMeta(d)))
		}
	}

	for _, raw := range ingredients {
		ingredient := normalize(raw)
		if ingredient == "" {
			continue
		}

		for _, re := range disliked {
			if re.MatchString(ingredient) {
				return true
			}
		}

		for _, allergy := range restrictions.Allergies {
			if containsAllergen(ingredient, allergy) {
				return true
			}
		}
	}
	return false
}

// containsAllergen expects an already normalized ingredient
func containsAllergen(ingredient string, allergy Allergy) bool {
	m, ok := allergenMatchers[allergy]
	if !ok {
		return false
	}
	if m.free != nil && m.free.MatchString(ingredient) {
		return false
	}

	masked := ingredient
	for _, phrase := range m.exempt {
		masked = strings.ReplaceAll(masked, phrase, " ")
	}
	return m.keywords.MatchString(masked)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
