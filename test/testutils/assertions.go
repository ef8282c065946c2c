// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// AdviceAssertions provides advice-specific assertion methods
type AdviceAssertions struct {
	t *testing.T
}

// NewAdviceAssertions creates a new advice assertions helper
func NewAdviceAssertions(t *testing.T) *AdviceAssertions {
	return &AdviceAssertions{t: t}
}

// WellFormed asserts the response carries between one and three non-blank
// recommendations and a known status
func (a *AdviceAssertions) WellFormed(resp *advice.AIOpinionResponse) {
	a.t.Helper()
	require.NotNil(a.t, resp, "response should not be nil")
	assert.NotEmpty(a.t, resp.Recommendations, "at least one recommendation expected")
	assert.LessOrEqual(a.t, len(resp.Recommendations), advice.MaxRecommendations)
	for i, rec := range resp.Recommendations {
		assert.NotEmpty(a.t, strings.TrimSpace(rec), "recommendation %d is blank", i)
	}
	assert.Contains(a.t,
		[]advice.VerificationStatus{advice.StatusOriginal, advice.StatusModified},
		resp.VerificationStatus,
	)
}

// FromFallbackPool asserts every recommendation is a pre-approved fallback
func (a *AdviceAssertions) FromFallbackPool(resp *advice.AIOpinionResponse) {
	a.t.Helper()
	for _, rec := range resp.Recommendations {
		assert.Contains(a.t, advice.FallbackAdvice, rec)
	}
}

// DecodeJSON decodes a recorded response body into dst
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst), "body: %s", rec.Body.String())
}

// AssertErrorCode asserts the recorded response is an error body with code
func AssertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code apperrors.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rec.Code, "body: %s", rec.Body.String())

	var body apperrors.ErrorResponse
	DecodeJSON(t, rec, &body)
	assert.Equal(t, code, body.Error.Code)
}
