package ai

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

// Overall provider states
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthCritical = "critical"
)

// Provider is a named completion client with an optional breaker
type Provider struct {
	Client  outbound.CompletionClient
	Breaker *healthcheck.CircuitBreaker
}

// HealthChecker provides health check functionality for AI providers
type HealthChecker struct {
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger
}

var _ healthcheck.Checker = (*HealthChecker)(nil)

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(logger *zap.Logger, providers ...Provider) *HealthChecker {
	return &HealthChecker{
		providers: providers,
		timeout:   10 * time.Second,
		logger:    logger.Named("ai-health"),
	}
}

// AIHealthStatus represents the health status of AI services
type AIHealthStatus struct {
	Overall   string            `json:"overall"`
	Providers map[string]bool   `json:"providers"`
	Details   map[string]string `json:"details"`
	Breakers  map[string]string `json:"breakers,omitempty"`
	LastCheck time.Time         `json:"last_check"`
}

// CheckHealth probes every provider. A provider counts as healthy when it
// answers its probe and its breaker is closed.
func (h *HealthChecker) CheckHealth(ctx context.Context) *AIHealthStatus {
	status := &AIHealthStatus{
		Providers: make(map[string]bool, len(h.providers)),
		Details:   make(map[string]string, len(h.providers)),
		Breakers:  make(map[string]string, len(h.providers)),
		LastCheck: time.Now(),
	}

	healthy := 0
	for _, p := range h.providers {
		name := p.Client.Name()

		breakerState := healthcheck.StateClosed
		if p.Breaker != nil {
			breakerState = p.Breaker.GetState()
			status.Breakers[name] = breakerState.String()
		}

		if err := h.probe(ctx, p.Client); err != nil {
			status.Providers[name] = false
			status.Details[name] = fmt.Sprintf("Unhealthy: %v", err)
			h.logger.Warn("AI provider health check failed", zap.String("provider", name), zap.Error(err))
			continue
		}

		if breakerState != healthcheck.StateClosed {
			status.Providers[name] = false
			status.Details[name] = "Reachable, circuit " + breakerState.String()
			continue
		}

		status.Providers[name] = true
		status.Details[name] = "Healthy"
		healthy++
	}

	switch {
	case len(h.providers) == 0 || healthy == 0:
		status.Overall = HealthCritical
	case healthy < len(h.providers):
		status.Overall = HealthDegraded
	default:
		status.Overall = HealthHealthy
	}

	return status
}

// Check adapts CheckHealth to the service health endpoint. A critical AI
// state only degrades the service, since advice falls back locally.
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	check := healthcheck.CheckFunc(h.report).Check(ctx)
	check.Name = "ai"
	return check
}

func (h *HealthChecker) report(ctx context.Context) (healthcheck.Status, string, interface{}) {
	status := h.CheckHealth(ctx)
	if status.Overall == HealthHealthy {
		return healthcheck.StatusHealthy, "", status
	}
	return healthcheck.StatusDegraded, "AI providers " + status.Overall, status
}

// GetHealthyProviders returns a list of currently healthy AI providers
func (h *HealthChecker) GetHealthyProviders(ctx context.Context) []string {
	status := h.CheckHealth(ctx)

	var healthy []string
	for provider, ok := range status.Providers {
		if ok {
			healthy = append(healthy, provider)
		}
	}
	sort.Strings(healthy)
	return healthy
}

func (h *HealthChecker) probe(ctx context.Context, client outbound.CompletionClient) error {
	hc, ok := client.(outbound.HealthCheckable)
	if !ok {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return hc.HealthCheck(probeCtx)
}
