package advice

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

const adviceSystemPrompt = "You are a registered dietitian reviewing a single logged meal. " +
	"You give short, practical, evidence-based suggestions and always answer with a JSON object only."

const semanticCheckSystemPrompt = "You are a clinical nutrition reviewer. You judge whether a piece of dietary advice " +
	"is scientifically sound and safe for a general adult audience. " +
	"Answer with exactly one of: VALID, INVALID: <short reason>, UNCERTAIN. Do not add anything else."

const correctionSystemPrompt = "You are a registered dietitian. You rewrite unsafe or unsound dietary advice into a safe, " +
	"evidence-based sentence that keeps the original intent. Reply with the corrected sentence only."

// buildAdvicePrompt embeds the user summary, restrictions, ingredients and consumed macros
func buildAdvicePrompt(p *nutrition.UserProfile, ingredients []string, meal nutrition.NutritionBreakdown) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze this meal for the following user.\n\n")
	prompt.WriteString("User:\n")
	prompt.WriteString(fmt.Sprintf("- Age: %d\n", p.Age))
	prompt.WriteString(fmt.Sprintf("- Gender: %s\n", p.Gender))
	prompt.WriteString(fmt.Sprintf("- Weight: %.1f kg, height: %.1f cm\n", p.WeightKg, p.HeightCm))
	prompt.WriteString(fmt.Sprintf("- Activity level: %s\n", strings.ReplaceAll(string(p.ActivityLevel), "_", " ")))
	prompt.WriteString(fmt.Sprintf("- Goal: %s weight (%s intensity)\n", p.WeightGoal, p.GoalIntensity))

	prompt.WriteString("\nDietary restrictions:\n")
	r := p.DietaryRestrictions
	if r.IsEmpty() {
		prompt.WriteString("- none\n")
	} else {
		if r.Preference != "" && r.Preference != nutrition.PreferenceNone {
			prompt.WriteString(fmt.Sprintf("- Preference: %s\n", r.Preference))
		}
		if len(r.Allergies) > 0 {
			allergies := make([]string, len(r.Allergies))
			for i, a := range r.Allergies {
				allergies[i] = strings.ReplaceAll(string(a), "_", " ")
			}
			prompt.WriteString(fmt.Sprintf("- Allergies: %s\n", strings.Join(allergies, ", ")))
		}
		if len(r.DislikedIngredients) > 0 {
			prompt.WriteString(fmt.Sprintf("- Dislikes: %s\n", sanitize(strings.Join(r.DislikedIngredients, ", "))))
		}
	}

	prompt.WriteString("\nIngredients:\n")
	if len(ingredients) == 0 {
		prompt.WriteString("- not provided\n")
	}
	for _, ingredient := range ingredients {
		prompt.WriteString(fmt.Sprintf("- %s\n", sanitize(ingredient)))
	}

	prompt.WriteString("\nConsumed:\n")
	for _, n := range []nutrition.Nutrient{nutrition.Calories, nutrition.Protein, nutrition.Fats, nutrition.Carbohydrates, nutrition.Fiber} {
		a, ok := meal[n]
		if !ok || !a.Present() {
			continue
		}
		prompt.WriteString(fmt.Sprintf("- %s: %.1f %s\n", n, *a.Value, a.Unit))
	}

	prompt.WriteString("\nInstructions:\n")
	prompt.WriteString("- Start with exactly one positive sentence tailored to this meal.\n")
	prompt.WriteString("- Then give two to three specific suggestions grounded in the listed ingredients.\n")
	prompt.WriteString("- Respect the dietary restrictions above.\n")
	prompt.WriteString("\nRespond with JSON only, in this format:\n")
	prompt.WriteString(`{"positive_feedback": "<one sentence>", "recommendations": ["<suggestion>", "<suggestion>"]}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildSemanticCheckPrompt(text string) string {
	var prompt strings.Builder
	prompt.WriteString("Evaluate the following dietary advice:\n\n")
	prompt.WriteString(quote(text))
	prompt.WriteString("\n\nAnswer VALID if it is sound and safe, INVALID: <reason> if it is unsound or unsafe, ")
	prompt.WriteString("or UNCERTAIN if you cannot tell.")
	return prompt.String()
}

func buildCorrectionPrompt(text, reason string) string {
	var prompt strings.Builder
	prompt.WriteString("The following dietary advice was judged unsound")
	if reason != "" {
		prompt.WriteString(fmt.Sprintf(" (%s)", sanitize(reason)))
	}
	prompt.WriteString(":\n\n")
	prompt.WriteString(quote(text))
	prompt.WriteString("\n\nRewrite it as one safe, evidence-based sentence that preserves its intent.")
	return prompt.String()
}

// sanitize keeps user or model text from breaking out of the prompt layout
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "```", "'''")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.ReplaceAll(text, "\n", " ")
}

func quote(text string) string {
	return "\"\"\"\n" + strings.ReplaceAll(sanitize(text), `"""`, `'''`) + "\n\"\"\""
}
