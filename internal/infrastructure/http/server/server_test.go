package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/application/advice"
	"github.com/alchemorsel/nutrition/internal/application/nutrition"
	adviceDomain "github.com/alchemorsel/nutrition/internal/domain/advice"
	domain "github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
	"github.com/alchemorsel/nutrition/test/testutils"
)

const profileJSON = `{"age":30,"gender":"male","weight_kg":80,"height_cm":180,` +
	`"activity_level":"moderate","weight_goal":"lose","goal_intensity":"moderate"}`

// ServerTestSuite runs requests through the full router with a real service
// and a mocked model
type ServerTestSuite struct {
	suite.Suite
	client  *testutils.MockCompletionClient
	metrics *monitoring.MetricsCollector
	server  *Server
}

func (s *ServerTestSuite) SetupTest() {
	logger := zap.NewNop()

	cfg, err := config.Load("")
	s.Require().NoError(err)

	s.client = testutils.NewMockCompletionClient()
	s.metrics = monitoring.NewMetricsCollector(logger)

	service := nutrition.NewService(
		domain.NewMealScorer(),
		advice.NewGenerator(s.client, advice.DefaultGeneratorConfig(), logger),
		advice.NewVerifier(s.client, advice.DefaultVerifierConfig(), logger),
		s.metrics,
		logger,
	)

	s.server = NewServer(
		cfg,
		logger,
		handlers.NewNutritionHandlers(service, cfg.Server.MaxBodyBytes, logger),
		handlers.NewOpenAPIHandler(logger),
		middleware.New(cfg.RateLimit, nil, s.metrics, logger),
		healthcheck.New(cfg.App.Version, logger),
		s.metrics.Handler(),
	)
}

func (s *ServerTestSuite) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) TestTargetsRoute() {
	rec := s.do(http.MethodPost, "/api/v1/targets", "application/json", `{"profile":`+profileJSON+`}`)

	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))

	var target domain.DailyRecommendation
	testutils.DecodeJSON(s.T(), rec, &target)
	s.Equal(2259.0, target.Calories.Or(0))
	s.Equal(176.0, target.Protein.Or(0))
}

func (s *ServerTestSuite) TestScoreRoute() {
	body := `{"profile":` + profileJSON + `,"meal":{"calories":700,"protein":50,"fats":20,"carbohydrates":70}}`
	rec := s.do(http.MethodPost, "/api/v1/meals/score", "application/json", body)

	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), `"score":46`)
	s.Contains(rec.Body.String(), `"letter_grade":"F"`)
}

func (s *ServerTestSuite) TestInvalidProfileRoute() {
	profile := strings.Replace(profileJSON, `"age":30`, `"age":0`, 1)
	rec := s.do(http.MethodPost, "/api/v1/targets", "application/json", `{"profile":`+profile+`}`)

	testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeInvalidProfile)
}

func (s *ServerTestSuite) TestAdviceRoute_ModelDown() {
	s.client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	body := `{"profile":` + profileJSON + `,"ingredients":["rice"],"nutrition":{"calories":650}}`
	rec := s.do(http.MethodPost, "/api/v1/advice", "application/json", body)

	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp adviceDomain.AIOpinionResponse
	testutils.DecodeJSON(s.T(), rec, &resp)
	assertions := testutils.NewAdviceAssertions(s.T())
	assertions.WellFormed(&resp)
	assertions.FromFallbackPool(&resp)
}

func (s *ServerTestSuite) TestRejectsNonJSON() {
	rec := s.do(http.MethodPost, "/api/v1/targets", "text/plain", `{}`)
	testutils.AssertErrorCode(s.T(), rec, http.StatusBadRequest, apperrors.CodeBadRequest)
}

func (s *ServerTestSuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/v1/recipes", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestHealthRoutes() {
	rec := s.do(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"healthy"`)

	rec = s.do(http.MethodGet, "/health/live", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"alive"`)
}

func (s *ServerTestSuite) TestMetricsRoute() {
	s.do(http.MethodPost, "/api/v1/targets", "application/json", `{"profile":`+profileJSON+`}`)

	rec := s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `nutrition_http_requests_total{method="POST",route="/api/v1/targets",status_code="200"} 1`)
}

func (s *ServerTestSuite) TestDocsRoutes() {
	rec := s.do(http.MethodGet, "/api/v1/openapi.yaml", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "openapi: 3.0.3")

	rec = s.do(http.MethodGet, "/api/v1/", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "spec_url")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestServer_NoMetricsOrDocs(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	logger := zap.NewNop()
	h := handlers.NewNutritionHandlers(nil, 0, logger)
	srv := NewServer(cfg, logger, h, nil, middleware.New(cfg.RateLimit, nil, nil, logger), healthcheck.New("test", logger), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	logger := zap.NewNop()
	srv := NewServer(cfg, logger, handlers.NewNutritionHandlers(nil, 0, logger), nil,
		middleware.New(cfg.RateLimit, nil, nil, logger), healthcheck.New("test", logger), nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.Eventually(t, func() bool {
		return srv.Shutdown(context.Background()) == nil
	}, time.Second, 10*time.Millisecond)
	assert.NoError(t, <-done)
}
