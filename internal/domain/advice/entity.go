// Package advice contains the AI advice domain: candidate recommendations,
// verification results and the pre-approved fallback pool.
package advice

// MaxRecommendations caps the recommendations surfaced to a user
const MaxRecommendations = 3

// AdviceDraft is the parsed output of the generation step
type AdviceDraft struct {
	Recommendations  []string    `json:"recommendations"`
	PositiveFeedback string      `json:"positive_feedback"`
	Source           DraftSource `json:"source"`
}

// DraftSource records where a draft's content came from
type DraftSource string

const (
	// SourceModel means both fields came from the model
	SourceModel DraftSource = "model"
	// SourcePartial means the model replied but one field was defaulted
	SourcePartial DraftSource = "partial"
	// SourceDefault means the model call or parse failed entirely
	SourceDefault DraftSource = "default"
)

// VerificationOutcome identifies which branch of verification decided a candidate
type VerificationOutcome string

const (
	OutcomeValid              VerificationOutcome = "valid"
	OutcomeQuickFilter        VerificationOutcome = "quick_filter"
	OutcomeCorrected          VerificationOutcome = "corrected"
	OutcomeCorrectionFallback VerificationOutcome = "correction_fallback"
	OutcomeUncertain          VerificationOutcome = "uncertain"
	OutcomeServiceFailed      VerificationOutcome = "service_failed"
	OutcomeEmpty              VerificationOutcome = "empty"
)

// Reasons attached to fallback results
const (
	ReasonUncertain     = "uncertain"
	ReasonServiceFailed = "verification service failed"
)

// VerificationResult is the verdict for one candidate
type VerificationResult struct {
	IsValid         bool                `json:"is_valid"`
	CorrectedAdvice string              `json:"corrected_advice,omitempty"`
	Reason          string              `json:"reason,omitempty"`
	Outcome         VerificationOutcome `json:"outcome"`
}

// Surfaced returns the text this result contributes to a response, if any
func (r VerificationResult) Surfaced(original string) (string, bool) {
	if r.IsValid {
		return original, true
	}
	if r.CorrectedAdvice != "" {
		return r.CorrectedAdvice, true
	}
	return "", false
}

// VerificationStatus tells whether any advice was replaced
type VerificationStatus string

const (
	StatusOriginal VerificationStatus = "original"
	StatusModified VerificationStatus = "modified"
)

// AIOpinionResponse is the verified advice handed back to callers
type AIOpinionResponse struct {
	ID                 string               `json:"id,omitempty"`
	Recommendations    []string             `json:"recommendations"`
	PositiveFeedback   string               `json:"positive_feedback"`
	VerificationStatus VerificationStatus   `json:"verification_status"`
	Results            []VerificationResult `json:"-"`
}
