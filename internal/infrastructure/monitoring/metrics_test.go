package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetricsCollector_Records(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/meals/score", http.StatusOK, 20*time.Millisecond)
	m.RecordAIRequest("ollama", "semantic_check", "success", time.Second)
	m.RecordAIRequest("ollama", "semantic_check", "success", time.Second)
	m.RecordVerification("quick_filter")
	m.RecordOpinion("modified", 2*time.Second)
	m.RecordMealScore(88, "B+")
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.SetBreakerState("ollama", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/meals/score", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.aiRequestsTotal.WithLabelValues("ollama", "semantic_check", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verificationsTotal.WithLabelValues("quick_filter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.opinionsTotal.WithLabelValues("modified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mealGradesTotal.WithLabelValues("B+")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.breakerState.WithLabelValues("ollama")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	m.RecordVerification("valid")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nutrition_advice_verifications_total{outcome="valid"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsCollector_IsolatedRegistries(t *testing.T) {
	// Two collectors must not collide on the default registry
	a := NewMetricsCollector(zap.NewNop())
	b := NewMetricsCollector(zap.NewNop())

	a.RecordVerification("valid")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.verificationsTotal.WithLabelValues("valid")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.verificationsTotal.WithLabelValues("valid")))
}
