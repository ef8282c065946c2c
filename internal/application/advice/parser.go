package advice

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "github.com/alchemorsel/nutrition/internal/domain/advice"
)

var validate = validator.New()

// ParseAdviceResponse turns a raw completion into a draft. It never panics;
// when the reply is not a JSON object it returns the full default draft and an
// error wrapping domain.ErrMalformedAIResponse.
func ParseAdviceResponse(raw string) (domain.AdviceDraft, error) {
	body := extractJSONObject(stripCodeFences(raw))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return DefaultDraft(), fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}
	if fields == nil {
		return DefaultDraft(), fmt.Errorf("%w: reply is not a JSON object", domain.ErrMalformedAIResponse)
	}

	draft := domain.AdviceDraft{Source: domain.SourceModel}

	var feedback string
	if err := json.Unmarshal(fields["positive_feedback"], &feedback); err != nil ||
		validate.Var(strings.TrimSpace(feedback), "required,max=600") != nil {
		draft.PositiveFeedback = domain.DefaultPositiveFeedback
		draft.Source = domain.SourcePartial
	} else {
		draft.PositiveFeedback = strings.TrimSpace(feedback)
	}

	var recommendations []string
	if err := json.Unmarshal(fields["recommendations"], &recommendations); err != nil || recommendations == nil {
		draft.Recommendations = append([]string(nil), domain.DefaultRecommendations...)
		draft.Source = domain.SourcePartial
		return draft, nil
	}

	draft.Recommendations = make([]string, 0, domain.MaxRecommendations)
	for _, rec := range recommendations {
		if len(draft.Recommendations) == domain.MaxRecommendations {
			break
		}
		rec = strings.TrimSpace(rec)
		if validate.Var(rec, "required") != nil {
			continue
		}
		draft.Recommendations = append(draft.Recommendations, rec)
	}

	return draft, nil
}

// DefaultDraft is returned when the model cannot be reached or understood
func DefaultDraft() domain.AdviceDraft {
	return domain.AdviceDraft{
		Recommendations:  append([]string(nil), domain.DefaultRecommendations...),
		PositiveFeedback: domain.DefaultPositiveFeedback,
		Source:           domain.SourceDefault,
	}
}

// stripCodeFences removes markdown fences such as ```json ... ```
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if fenceLine.MatchString(line) {
			continue
		}
		kept = append(kept, strings.ReplaceAll(line, "```", ""))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// fenceLine matches a line holding only a fence and an optional language tag
var fenceLine = regexp.MustCompile("^\\s*```[\\w-]*\\s*$")

// extractJSONObject keeps the text between the first '{' and the last '}'
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

// cleanCompletion normalizes a free text reply to a single trimmed string
func cleanCompletion(text string) string {
	text = stripCodeFences(text)
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'`*")
	return strings.TrimSpace(text)
}
