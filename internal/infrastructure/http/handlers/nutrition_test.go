package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
	"github.com/alchemorsel/nutrition/test/testutils"
)

const profileJSON = `{"age":30,"gender":"male","weight_kg":80,"height_cm":180,` +
	`"activity_level":"moderate","weight_goal":"lose","goal_intensity":"moderate"}`

type mockNutritionService struct {
	mock.Mock
}

var _ inbound.NutritionService = (*mockNutritionService)(nil)

func (m *mockNutritionService) CalculateTargets(ctx context.Context, profile *nutrition.UserProfile) (*nutrition.DailyRecommendation, error) {
	args := m.Called(ctx, profile)
	if r := args.Get(0); r != nil {
		return r.(*nutrition.DailyRecommendation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNutritionService) RateMeal(ctx context.Context, cmd inbound.RateMealCommand) (*inbound.MealAssessment, error) {
	args := m.Called(ctx, cmd)
	if r := args.Get(0); r != nil {
		return r.(*inbound.MealAssessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNutritionService) GetAIOpinion(ctx context.Context, cmd inbound.AIOpinionCommand) (*advice.AIOpinionResponse, error) {
	args := m.Called(ctx, cmd)
	if r := args.Get(0); r != nil {
		return r.(*advice.AIOpinionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNutritionService) VerifyRecommendations(ctx context.Context, recommendations []string) *advice.AIOpinionResponse {
	return m.Called(ctx, recommendations).Get(0).(*advice.AIOpinionResponse)
}

type NutritionHandlersTestSuite struct {
	suite.Suite
	service  *mockNutritionService
	handlers *NutritionHandlers
}

func (s *NutritionHandlersTestSuite) SetupTest() {
	s.service = new(mockNutritionService)
	s.handlers = NewNutritionHandlers(s.service, 4096, zap.NewNop())
}

func (s *NutritionHandlersTestSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func (s *NutritionHandlersTestSuite) post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func (s *NutritionHandlersTestSuite) TestCalculateTargets() {
	target := &nutrition.DailyRecommendation{
		Calories: nutrition.Amount(2259, nutrition.UnitKcal),
		Protein:  nutrition.Amount(176, nutrition.UnitGram),
		BMR:      1780,
		TDEE:     2759,
	}
	s.service.On("CalculateTargets", mock.Anything, mock.MatchedBy(func(p *nutrition.UserProfile) bool {
		return p.Age == 30 && p.Gender == nutrition.GenderMale && p.WeightKg == 80
	})).Return(target, nil)

	rec := s.post(s.handlers.CalculateTargets, `{"profile":`+profileJSON+`}`)

	s.Equal(http.StatusOK, rec.Code)
	var got nutrition.DailyRecommendation
	testutils.DecodeJSON(s.T(), rec, &got)
	s.Equal(2259.0, got.Calories.Or(0))
	s.Equal(nutrition.UnitKcal, got.Calories.Unit)
	s.Equal(1780.0, got.BMR)
}

func (s *NutritionHandlersTestSuite) TestCalculateTargets_InvalidProfile() {
	s.service.On("CalculateTargets", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: age failed gt", nutrition.ErrInvalidProfile))

	rec := s.post(s.handlers.CalculateTargets, `{"profile":`+profileJSON+`}`)

	testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeInvalidProfile)
}

func (s *NutritionHandlersTestSuite) TestCalculateTargets_MissingProfile() {
	rec := s.post(s.handlers.CalculateTargets, `{}`)
	testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeValidationFailed)
}

func (s *NutritionHandlersTestSuite) TestBind_Failures() {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"profile":`},
		{name: "unknown field", body: `{"profile":` + profileJSON + `,"extra":true}`},
		{name: "too large", body: `{"profile":` + profileJSON + `,"x":"` + strings.Repeat("a", 8192) + `"}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.post(s.handlers.CalculateTargets, tt.body)
			testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeBadRequest)
		})
	}
}

func (s *NutritionHandlersTestSuite) TestScoreMeal() {
	assessment := &inbound.MealAssessment{
		Rating: nutrition.MealRating{Score: 46, LetterGrade: "F"},
	}
	s.service.On("RateMeal", mock.Anything, mock.MatchedBy(func(cmd inbound.RateMealCommand) bool {
		cal, ok := cmd.Meal.Get(nutrition.Calories)
		_, vitaminKnown := cmd.Meal.Get(nutrition.VitaminC)
		_, hasVitamin := cmd.Meal[nutrition.VitaminC]
		return ok && cal == 700 && hasVitamin && !vitaminKnown &&
			cmd.Meal[nutrition.Protein].Unit == nutrition.UnitGram &&
			len(cmd.Ingredients) == 1 && cmd.Ingredients[0] == "chicken"
	})).Return(assessment, nil)

	body := `{"profile":` + profileJSON + `,"meal":{"calories":700,"protein":50,"fats":20,"carbohydrates":70,"vitamin_c":null},"ingredients":["chicken"]}`
	rec := s.post(s.handlers.ScoreMeal, body)

	s.Equal(http.StatusOK, rec.Code)
	var got inbound.MealAssessment
	testutils.DecodeJSON(s.T(), rec, &got)
	s.Equal(46, got.Rating.Score)
	s.Equal("F", got.Rating.LetterGrade)
}

func (s *NutritionHandlersTestSuite) TestScoreMeal_BadMeal() {
	tests := []struct {
		name string
		meal string
	}{
		{name: "unknown nutrient", meal: `{"calories":700,"sugar":12}`},
		{name: "negative amount", meal: `{"calories":-1}`},
		{name: "empty meal", meal: `{}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.post(s.handlers.ScoreMeal, `{"profile":`+profileJSON+`,"meal":`+tt.meal+`}`)
			testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeValidationFailed)
		})
	}
}

func (s *NutritionHandlersTestSuite) TestScoreMeal_MissingData() {
	s.service.On("RateMeal", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: target calories", nutrition.ErrMissingData))

	rec := s.post(s.handlers.ScoreMeal, `{"profile":`+profileJSON+`,"meal":{"calories":700}}`)

	testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeMissingData)
}

func (s *NutritionHandlersTestSuite) TestGetAdvice() {
	opinion := &advice.AIOpinionResponse{
		ID:                 "2f1c7f6e-8a43-4a55-9a38-0f1c2e1d5b11",
		Recommendations:    []string{"Add a side of vegetables"},
		PositiveFeedback:   "Good protein content",
		VerificationStatus: advice.StatusOriginal,
	}
	s.service.On("GetAIOpinion", mock.Anything, mock.MatchedBy(func(cmd inbound.AIOpinionCommand) bool {
		return cmd.Profile != nil && len(cmd.Ingredients) == 2
	})).Return(opinion, nil)

	body := `{"profile":` + profileJSON + `,"ingredients":["rice","beans"],"nutrition":{"calories":650}}`
	rec := s.post(s.handlers.GetAdvice, body)

	s.Equal(http.StatusOK, rec.Code)
	var got advice.AIOpinionResponse
	testutils.DecodeJSON(s.T(), rec, &got)
	s.Equal(opinion.ID, got.ID)
	s.Equal(opinion.Recommendations, got.Recommendations)
	s.Equal(advice.StatusOriginal, got.VerificationStatus)
	s.NotContains(rec.Body.String(), "outcome", "per-candidate results stay internal")
}

func (s *NutritionHandlersTestSuite) TestGetAdvice_ServiceErrors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{name: "unavailable", err: advice.ErrAIServiceUnavailable, status: http.StatusServiceUnavailable, code: apperrors.CodeAIServiceUnavailable},
		{name: "malformed", err: advice.ErrMalformedAIResponse, status: http.StatusBadGateway, code: apperrors.CodeMalformedAIResponse},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			service := new(mockNutritionService)
			service.On("GetAIOpinion", mock.Anything, mock.Anything).Return(nil, tt.err)
			h := NewNutritionHandlers(service, 0, zap.NewNop())

			rec := s.post(h.GetAdvice, `{"profile":`+profileJSON+`,"nutrition":{"calories":650}}`)

			testutils.AssertErrorCode(s.T(), rec, tt.status, tt.code)
		})
	}
}

func (s *NutritionHandlersTestSuite) TestVerifyAdvice() {
	resp := &advice.AIOpinionResponse{
		Recommendations:    []string{"Drink water with meals"},
		VerificationStatus: advice.StatusModified,
	}
	s.service.On("VerifyRecommendations", mock.Anything, []string{"Skip all meals"}).Return(resp)

	rec := s.post(s.handlers.VerifyAdvice, `{"recommendations":["Skip all meals"]}`)

	s.Equal(http.StatusOK, rec.Code)
	var got advice.AIOpinionResponse
	testutils.DecodeJSON(s.T(), rec, &got)
	s.Equal(advice.StatusModified, got.VerificationStatus)
}

func (s *NutritionHandlersTestSuite) TestVerifyAdvice_Validation() {
	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("%q", "tip")
	}

	tests := []struct {
		name string
		body string
	}{
		{name: "missing", body: `{}`},
		{name: "empty", body: `{"recommendations":[]}`},
		{name: "too many", body: `{"recommendations":[` + strings.Join(tooMany, ",") + `]}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.post(s.handlers.VerifyAdvice, tt.body)
			testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeValidationFailed)
		})
	}
}

func TestNutritionHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(NutritionHandlersTestSuite))
}

func TestMealNutrition_Breakdown(t *testing.T) {
	protein := 30.0
	meal := MealNutrition{"protein": &protein, "iron": nil}

	got, err := meal.Breakdown()
	require.NoError(t, err)

	v, ok := got.Get(nutrition.Protein)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, nutrition.UnitMilli, got[nutrition.Iron].Unit)
	assert.False(t, got[nutrition.Iron].Present())
}

func TestFromDomain_PassesAppErrorsThrough(t *testing.T) {
	original := apperrors.NewBadRequestError("nope")
	assert.Same(t, original, fromDomain(fmt.Errorf("wrapped: %w", original)))
}

func TestOpenAPIHandler(t *testing.T) {
	h := NewOpenAPIHandler(zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeSpec(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/meals/score:")
	assert.Contains(t, rec.Body.String(), "/advice/verify:")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1", nil)
	req.Host = "nutrition.local"
	h.ServeIndex(rec, req)

	var index map[string]string
	testutils.DecodeJSON(t, rec, &index)
	assert.Equal(t, "http://nutrition.local/api/v1/openapi.yaml", index["spec_url"])
}
