// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// MockCompletionClient provides a mock implementation of CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

var _ outbound.CompletionClient = (*MockCompletionClient)(nil)

// NewMockCompletionClient creates a new mock completion client
func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{}
}

// Complete returns the configured completion
func (m *MockCompletionClient) Complete(ctx context.Context, req outbound.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Name returns "mock"
func (m *MockCompletionClient) Name() string {
	return "mock"
}

// ForPurpose matches requests by purpose
func ForPurpose(purpose string) interface{} {
	return mock.MatchedBy(func(req outbound.CompletionRequest) bool {
		return req.Purpose == purpose
	})
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

var _ outbound.CacheRepository = (*MockCacheRepository)(nil)

// NewMockCacheRepository creates a new mock cache repository
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{}
}

// Get retrieves a value
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// Set stores a value
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists checks a key
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// RecordingMetrics is a MetricsRecorder that keeps every observation
type RecordingMetrics struct {
	mu            sync.Mutex
	AIRequests    []string
	Verifications []string
	Opinions      []string
	MealScores    []int
	CacheHits     int
	CacheMisses   int
}

var _ outbound.MetricsRecorder = (*RecordingMetrics)(nil)

func (r *RecordingMetrics) RecordAIRequest(provider, purpose, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AIRequests = append(r.AIRequests, provider+"/"+purpose+"/"+status)
}

func (r *RecordingMetrics) RecordVerification(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Verifications = append(r.Verifications, outcome)
}

func (r *RecordingMetrics) RecordOpinion(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Opinions = append(r.Opinions, status)
}

func (r *RecordingMetrics) RecordMealScore(score int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.MealScores = append(r.MealScores, score)
}

func (r *RecordingMetrics) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.CacheHits++
	} else {
		r.CacheMisses++
	}
}

// Snapshot returns copies of the recorded AI requests and verifications
func (r *RecordingMetrics) Snapshot() (aiRequests, verifications []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.AIRequests...), append([]string(nil), r.Verifications...)
}
