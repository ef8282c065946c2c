package nutrition

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/nutrition/internal/application/advice"
	adviceDomain "github.com/alchemorsel/nutrition/internal/domain/advice"
	domain "github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/test/testutils"
)

// ServiceTestSuite drives the service through a mocked completion client
type ServiceTestSuite struct {
	suite.Suite
	client  *testutils.MockCompletionClient
	metrics *testutils.RecordingMetrics
	service *Service
	profile *domain.UserProfile
	meal    domain.NutritionBreakdown
}

func (s *ServiceTestSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())
	s.client = testutils.NewMockCompletionClient()
	s.metrics = &testutils.RecordingMetrics{}
	s.service = NewService(
		domain.NewMealScorer(),
		advice.NewGenerator(s.client, advice.DefaultGeneratorConfig(), logger),
		advice.NewVerifier(s.client, advice.DefaultVerifierConfig(), logger),
		s.metrics,
		logger,
	)
	s.profile = testutils.NewProfileBuilder().Build()
	s.meal = testutils.NewMealBuilder().Macros(700, 50, 20, 70).Build()
}

func (s *ServiceTestSuite) onGenerate(reply string, err error) {
	s.client.On("Complete", mock.Anything, testutils.ForPurpose(outbound.PurposeGenerate)).Return(reply, err).Once()
}

func (s *ServiceTestSuite) TestCalculateTargets() {
	target, err := s.service.CalculateTargets(context.Background(), s.profile)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2259.0, *target.Calories.Value)

	_, err = s.service.CalculateTargets(context.Background(), testutils.NewProfileBuilder().WithAge(-3).Build())
	assert.ErrorIs(s.T(), err, domain.ErrInvalidProfile)
}

func (s *ServiceTestSuite) TestRateMeal() {
	assessment, err := s.service.RateMeal(context.Background(), inbound.RateMealCommand{
		Profile: s.profile,
		Meal:    s.meal,
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 46, assessment.Rating.Score)
	assert.Equal(s.T(), "F", assessment.Rating.LetterGrade)
	assert.Equal(s.T(), assessment.Rating, assessment.Breakdown.Rating)
	assert.NotNil(s.T(), assessment.Target)
	assert.Equal(s.T(), []int{46}, s.metrics.MealScores)
}

func (s *ServiceTestSuite) TestRateMealMissingInputs() {
	_, err := s.service.RateMeal(context.Background(), inbound.RateMealCommand{Profile: s.profile})
	assert.ErrorIs(s.T(), err, domain.ErrMissingData)

	_, err = s.service.RateMeal(context.Background(), inbound.RateMealCommand{Meal: s.meal})
	assert.ErrorIs(s.T(), err, domain.ErrMissingData)
	assert.Empty(s.T(), s.metrics.MealScores)
}

func (s *ServiceTestSuite) TestGetAIOpinion() {
	s.onGenerate(`{"positive_feedback": "Solid protein.", "recommendations": ["Add vegetables.", "Eliminate all fats."]}`, nil)
	s.client.On("Complete", mock.Anything, testutils.ForPurpose(outbound.PurposeSemanticCheck)).Return("VALID", nil).Once()

	resp, err := s.service.GetAIOpinion(context.Background(), inbound.AIOpinionCommand{
		Profile:     s.profile,
		Ingredients: []string{"chicken", "rice"},
		Nutrition:   s.meal,
	})
	require.NoError(s.T(), err)

	_, parseErr := uuid.Parse(resp.ID)
	assert.NoError(s.T(), parseErr)
	assert.Equal(s.T(), "Solid protein.", resp.PositiveFeedback)
	assert.Equal(s.T(), []string{"Add vegetables.", adviceDomain.NutritionistConsultAdvice}, resp.Recommendations)
	assert.Equal(s.T(), adviceDomain.StatusModified, resp.VerificationStatus)

	assert.Equal(s.T(), []string{"modified"}, s.metrics.Opinions)
	_, verifications := s.metrics.Snapshot()
	assert.ElementsMatch(s.T(), []string{"valid", "quick_filter"}, verifications)
	s.client.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestGetAIOpinionModelDown() {
	down := errors.New("connection refused")
	s.onGenerate("", down)
	s.client.On("Complete", mock.Anything, testutils.ForPurpose(outbound.PurposeSemanticCheck)).Return("", down).Times(2)

	resp, err := s.service.GetAIOpinion(context.Background(), inbound.AIOpinionCommand{
		Profile:   s.profile,
		Nutrition: s.meal,
	})
	require.NoError(s.T(), err)

	testutils.NewAdviceAssertions(s.T()).WellFormed(resp)
	testutils.NewAdviceAssertions(s.T()).FromFallbackPool(resp)
	assert.Equal(s.T(), adviceDomain.DefaultPositiveFeedback, resp.PositiveFeedback)
	assert.Equal(s.T(), adviceDomain.StatusModified, resp.VerificationStatus)
}

func (s *ServiceTestSuite) TestGetAIOpinionScreensFeedback() {
	s.onGenerate(`{"positive_feedback": "This is a miracle meal!", "recommendations": []}`, nil)

	resp, err := s.service.GetAIOpinion(context.Background(), inbound.AIOpinionCommand{
		Profile:   s.profile,
		Nutrition: s.meal,
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), adviceDomain.DefaultPositiveFeedback, resp.PositiveFeedback)
	assert.Len(s.T(), resp.Recommendations, 1)
	assert.Equal(s.T(), adviceDomain.StatusModified, resp.VerificationStatus)
}

func (s *ServiceTestSuite) TestGetAIOpinionRejectsBadInput() {
	_, err := s.service.GetAIOpinion(context.Background(), inbound.AIOpinionCommand{Nutrition: s.meal})
	assert.ErrorIs(s.T(), err, domain.ErrMissingData)

	_, err = s.service.GetAIOpinion(context.Background(), inbound.AIOpinionCommand{Profile: s.profile})
	assert.ErrorIs(s.T(), err, domain.ErrMissingData)

	_, err = s.service.GetAIOpinion(context.Background(), inbound.AIOpinionCommand{
		Profile:   testutils.NewProfileBuilder().WithGender("other").Build(),
		Nutrition: s.meal,
	})
	assert.ErrorIs(s.T(), err, domain.ErrInvalidProfile)

	s.client.AssertNotCalled(s.T(), "Complete", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestVerifyRecommendations() {
	s.client.On("Complete", mock.Anything, testutils.ForPurpose(outbound.PurposeSemanticCheck)).Return("VALID", nil).Times(2)

	resp := s.service.VerifyRecommendations(context.Background(), []string{"Drink water.", "Add fruit."})

	assert.NotEmpty(s.T(), resp.ID)
	assert.Equal(s.T(), []string{"Drink water.", "Add fruit."}, resp.Recommendations)
	assert.Equal(s.T(), adviceDomain.StatusOriginal, resp.VerificationStatus)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestNewService_NilMetrics(t *testing.T) {
	client := testutils.NewMockCompletionClient()
	logger := zaptest.NewLogger(t)
	svc := NewService(
		domain.NewMealScorer(),
		advice.NewGenerator(client, advice.GeneratorConfig{}, logger),
		advice.NewVerifier(client, advice.VerifierConfig{}, logger),
		nil,
		logger,
	)

	_, err := svc.RateMeal(context.Background(), inbound.RateMealCommand{
		Profile: testutils.NewProfileBuilder().Build(),
		Meal:    testutils.NewMealBuilder().Macros(500, 30, 15, 50).Build(),
	})
	assert.NoError(t, err)
}
