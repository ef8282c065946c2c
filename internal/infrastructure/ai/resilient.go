// Package ai wires completion clients with throttling, circuit breaking,
// verdict caching and health reporting
package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

var tracer = otel.Tracer("github.com/alchemorsel/nutrition/internal/infrastructure/ai")

// Request statuses reported to metrics
const (
	statusSuccess   = "success"
	statusError     = "error"
	statusRejected  = "rejected"
	statusThrottled = "throttled"
)

// GuardConfig controls outbound throttling and circuit breaking
type GuardConfig struct {
	RequestsPerMinute int
	Burst             int
	Breaker           healthcheck.CircuitBreakerConfig
}

// GuardedClient throttles calls to a provider and fails fast while the
// provider is known to be down
type GuardedClient struct {
	next    outbound.CompletionClient
	limiter *rate.Limiter
	breaker *healthcheck.CircuitBreaker
	metrics outbound.MetricsRecorder
	logger  *zap.Logger
}

var (
	_ outbound.CompletionClient = (*GuardedClient)(nil)
	_ outbound.HealthCheckable  = (*GuardedClient)(nil)
)

// NewGuardedClient wraps next. A non-positive RequestsPerMinute disables throttling.
func NewGuardedClient(next outbound.CompletionClient, cfg GuardConfig, metrics outbound.MetricsRecorder, logger *zap.Logger) *GuardedClient {
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
		if burst <= 0 {
			burst = int(math.Max(1, float64(cfg.RequestsPerMinute)/60))
		}
	}

	logger = logger.Named("ai-guard")
	userHook := cfg.Breaker.OnStateChange
	cfg.Breaker.OnStateChange = func(name string, from, to healthcheck.CircuitBreakerState) {
		logger.Warn("AI circuit breaker changed state",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if userHook != nil {
			userHook(name, from, to)
		}
	}

	return &GuardedClient{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: healthcheck.NewCircuitBreaker(next.Name(), cfg.Breaker),
		metrics: metrics,
		logger:  logger,
	}
}

// Name returns the wrapped provider's name
func (g *GuardedClient) Name() string {
	return g.next.Name()
}

// Breaker exposes the circuit breaker for health reporting
func (g *GuardedClient) Breaker() *healthcheck.CircuitBreaker {
	return g.breaker
}

// Complete waits for a rate token, then calls the provider through the breaker
func (g *GuardedClient) Complete(ctx context.Context, req outbound.CompletionRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "ai.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", g.next.Name()),
		attribute.String("ai.purpose", req.Purpose),
	)

	start := time.Now()

	if err := g.limiter.Wait(ctx); err != nil {
		g.observe(req.Purpose, statusThrottled, start)
		span.SetStatus(codes.Error, "throttled")
		return "", apperrors.NewAIServiceError(g.next.Name(),
			fmt.Errorf("%w: rate limit wait: %v", advice.ErrAIServiceUnavailable, err))
	}

	var out string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = g.next.Complete(ctx, req)
		return callErr
	})

	switch {
	case err == nil:
		g.observe(req.Purpose, statusSuccess, start)
		return out, nil
	case errors.Is(err, healthcheck.ErrCircuitOpen):
		g.observe(req.Purpose, statusRejected, start)
		span.SetStatus(codes.Error, "circuit open")
		return "", apperrors.NewAIServiceError(g.next.Name(),
			fmt.Errorf("%w: %w", advice.ErrAIServiceUnavailable, err))
	default:
		g.observe(req.Purpose, statusError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
}

// HealthCheck probes the provider when it supports probing
func (g *GuardedClient) HealthCheck(ctx context.Context) error {
	if hc, ok := g.next.(outbound.HealthCheckable); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (g *GuardedClient) observe(purpose, status string, start time.Time) {
	if g.metrics != nil {
		g.metrics.RecordAIRequest(g.next.Name(), purpose, status, time.Since(start))
	}
}
