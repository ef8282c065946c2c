package advice

import "regexp"

// FilterCategory names a family of dangerous advice
type FilterCategory string

const (
	CategoryExtremeFasting   FilterCategory = "extreme_fasting"
	CategoryMacroElimination FilterCategory = "macronutrient_elimination"
	CategoryMiracleClaim     FilterCategory = "miracle_claim"
	CategoryDetox            FilterCategory = "detox_cleanse"
)

type dangerousPattern struct {
	category FilterCategory
	re       *regexp.Regexp
	// unless is matched against the text before a hit; a match skips it
	unless *regexp.Regexp
}

// Durations of 24h or more, or any number of days
const (
	longHours = `(?:2[4-9]|[3-9]\d|\d{3,})\s*-?\s*(?:hours?|hrs?|h)\b`
	anyDays   = `(?:\d+|one|two|three|four|five|six|seven|several|multiple|a\s+few)\s*-?\s*(?:full\s+)?days?\b`
)

// Elimination only counts at diet level: "all fat from the chicken" and
// "all fat-heavy sauces" are about a food, not the macronutrient.
const (
	macroTerm   = `(?:carbs?|carbohydrates?|fats?|dietary\s+fats?)`
	dietLevel   = `(?:\s*(?:[.,;:!?)]|$)|\s+(?:from\s+(?:your|the|my)\s+(?:diet|meals?|menu|eating(?:\s+plan)?)|(?:in|out\s+of)\s+your\s+diet|to|for|and|or|entirely|completely|altogether|forever|immediately|intake)\b)`
	miracleWhat = `(?:foods?|meals?|cures?|diets?|pills?|berr(?:y|ies)|fruits?|teas?|drinks?|supplements?|ingredients?|solutions?|fat[- ]burners?|weight[- ]loss|results?|workers?|plans?)`
)

var negated = regexp.MustCompile(`(?i)\b(?:no|not|never|isn'?t|aren'?t|without)\s+(?:(?:a|an|any|such)\s+)?(?:\w+\s+)?$`)

var dangerousPatterns = []dangerousPattern{
	{category: CategoryExtremeFasting, re: regexp.MustCompile(`(?i)\b(?:fast|fasting)\s+(?:for\s+)?(?:(?:up\s+to|about|around|at\s+least|over|more\s+than)\s+)?(?:` + longHours + `|` + anyDays + `)`)},
	{category: CategoryExtremeFasting, re: regexp.MustCompile(`(?i)\b(?:` + longHours + `|` + anyDays + `)\s+(?:water\s+|juice\s+|dry\s+)?fast(?:ing)?\b`)},
	{category: CategoryExtremeFasting, re: regexp.MustCompile(`(?i)\b(?:stop|quit|avoid)\s+eating\s+(?:entirely|completely|altogether|for\s+(?:\d+|several|a\s+few)\s+days?)\b`)},

	{category: CategoryMacroElimination, re: regexp.MustCompile(`(?i)\b(?:eliminate|cut\s+out|remove|avoid|drop|ban|stop\s+eating)\s+(?:all|any|every)\s+(?:forms?\s+of\s+)?` + macroTerm + dietLevel)},
	{category: CategoryMacroElimination, re: regexp.MustCompile(`(?i)\bcompletely\s+(?:eliminate|cut\s+out|remove|avoid)\s+` + macroTerm + dietLevel)},
	{category: CategoryMacroElimination, re: regexp.MustCompile(`(?i)\b(?:zero|no)[- ](?:carbs?|carbohydrates?|fats?)\s+(?:diet|at\s+all|whatsoever|ever)\b`)},

	{category: CategoryMiracleClaim, re: regexp.MustCompile(`(?i)\bmiracle\s+` + miracleWhat + `\b`), unless: negated},
	{category: CategoryMiracleClaim, re: regexp.MustCompile(`(?i)\b(?:works?|working|worked)\s+(?:like\s+)?(?:a\s+)?miracles?\b`), unless: negated},
	{category: CategoryMiracleClaim, re: regexp.MustCompile(`(?i)\b(?:instant(?:ly)?|overnight)\s+(?:weight[- ]loss|fat[- ](?:loss|burn(?:ing)?)|results?|slimming)\b`)},
	{category: CategoryMiracleClaim, re: regexp.MustCompile(`(?i)\b(?:melts?|burns?)\s+(?:belly\s+)?fat\s+(?:instantly|overnight)\b`)},
	{category: CategoryMiracleClaim, re: regexp.MustCompile(`(?i)\bguaranteed\s+(?:weight[- ]loss|results?)\b`)},
	{category: CategoryMiracleClaim, re: regexp.MustCompile(`(?i)\blose\s+\d+\s*(?:kg|kilos?|lbs?|pounds)\s+(?:overnight|in\s+(?:a|one|two|three|\d)\s+days?)\b`)},

	{category: CategoryDetox, re: regexp.MustCompile(`(?i)\bdetox(?:es|ing|ify|ification)?\b`)},
	{category: CategoryDetox, re: regexp.MustCompile(`(?i)\b(?:juice|body|colon|liver|gut|kidney|blood|master|detox|tea|water|full[- ]body)\s+cleans(?:e[sd]?|ing)\b`)},
	{category: CategoryDetox, re: regexp.MustCompile(`(?i)\bcleans(?:e|es|ing)\s+(?:out\s+)?(?:your\s+|the\s+)?(?:body|colon|liver|gut|kidneys?|blood|system|organs)\b`)},
	{category: CategoryDetox, re: regexp.MustCompile(`(?i)\bcleanse\s+(?:diet|program|plan|regimen)\b`)},
	{category: CategoryDetox, re: regexp.MustCompile(`(?i)\bflush(?:es|ing)?\s+(?:out\s+)?(?:the\s+|your\s+)?toxins\b`)},
}

// QuickFilter is the network-free safety screen run before semantic checks
type QuickFilter struct {
	patterns []dangerousPattern
}

// NewQuickFilter creates a filter with the built-in dangerous patterns
func NewQuickFilter() *QuickFilter {
	return &QuickFilter{patterns: dangerousPatterns}
}

// Check returns the category of the first dangerous pattern found in text
func (f *QuickFilter) Check(text string) (FilterCategory, bool) {
	for _, p := range f.patterns {
		if p.matches(text) {
			return p.category, true
		}
	}
	return "", false
}

func (p dangerousPattern) matches(text string) bool {
	if p.unless == nil {
		return p.re.MatchString(text)
	}
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if !p.unless.MatchString(text[:loc[0]]) {
			return true
		}
	}
	return false
}
