// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"
)

// Completion purposes, used for metrics labels and cache policy
const (
	PurposeGenerate      = "generate"
	PurposeSemanticCheck = "semantic_check"
	PurposeCorrection    = "correction"
)

// CompletionRequest is a single prompt sent to a generative model
type CompletionRequest struct {
	Purpose     string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionClient sends one prompt and returns the model's text.
// Implementations return an error for transport, timeout and decode failures.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// HealthCheckable is implemented by clients that can probe their provider
type HealthCheckable interface {
	HealthCheck(ctx context.Context) error
}

// ErrCacheMiss is returned by CacheRepository.Get for absent keys
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MetricsRecorder receives domain level observations
type MetricsRecorder interface {
	RecordAIRequest(provider, purpose, status string, duration time.Duration)
	RecordVerification(outcome string)
	RecordOpinion(status string, duration time.Duration)
	RecordMealScore(score int, grade string)
	RecordCacheLookup(hit bool)
}
