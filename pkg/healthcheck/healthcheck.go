// Package healthcheck provides health and readiness check functionality
// Following the Health Check API pattern for cloud-native applications
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Millis is a duration reported in fractional milliseconds
type Millis time.Duration

// MarshalJSON writes the duration as milliseconds
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(time.Duration(m).Microseconds()) / 1000)
}

// UnmarshalJSON reads milliseconds back into a duration
func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*m = Millis(ms * float64(time.Millisecond))
	return nil
}

// Check is the outcome of one registered checker
type Check struct {
	Name        string      `json:"name"`
	Status      Status      `json:"status"`
	Message     string      `json:"message,omitempty"`
	LastChecked time.Time   `json:"last_checked"`
	Duration    Millis      `json:"duration_ms"`
	Metadata    interface{} `json:"metadata,omitempty"`
}

// Response is the body served on /health
type Response struct {
	Status        Status    `json:"status"`
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	Checks        []Check   `json:"checks"`
	TotalDuration Millis    `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckFunc adapts a probe function to Checker. The aggregator names the
// check after its registration, so the function only reports the outcome.
type CheckFunc func(ctx context.Context) (Status, string, interface{})

// Check runs the probe and times it
func (f CheckFunc) Check(ctx context.Context) Check {
	start := time.Now()
	status, message, metadata := f(ctx)
	return Check{
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    Millis(time.Since(start)),
	}
}

// HealthCheck manages health checks
type HealthCheck struct {
	version  string
	checkers map[string]Checker
	logger   *zap.Logger
	mu       sync.RWMutex
	cache    *Response
	cacheTTL time.Duration
	timeout  time.Duration
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		checkers: make(map[string]Checker),
		logger:   logger.Named("healthcheck"),
		cacheTTL: 5 * time.Second,
		timeout:  5 * time.Second,
	}
}

// Register registers a health checker
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// SetCacheTTL sets the cache TTL for health check responses
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// Handler returns the HTTP handler for health checks
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		writeJSON(w, statusCode, response)
	}
}

// LivenessHandler returns the HTTP handler for liveness checks
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	}
}

// Check performs all health checks
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	h.mu.RUnlock()

	start := time.Now()
	response := Response{
		Version:   h.version,
		Timestamp: start,
		Status:    StatusHealthy,
		Checks:    make([]Check, 0, len(checkers)),
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var wg sync.WaitGroup
	checksChan := make(chan Check, len(checkers))
	for name, checker := range checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			check := c.Check(checkCtx)
			check.Name = n
			checksChan <- check
		}(name, checker)
	}
	wg.Wait()
	close(checksChan)

	for check := range checksChan {
		response.Checks = append(response.Checks, check)

		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}
	sort.Slice(response.Checks, func(i, j int) bool {
		return response.Checks[i].Name < response.Checks[j].Name
	})

	response.TotalDuration = Millis(time.Since(start))
	if response.Status != StatusHealthy {
		h.logger.Warn("Health check not healthy", zap.String("status", string(response.Status)))
	}

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// NewRedisChecker pings the verdict cache backend. The cache is optional, so
// an unreachable server degrades the service instead of failing it.
func NewRedisChecker(client redis.UniversalClient) Checker {
	return CheckFunc(func(ctx context.Context) (Status, string, interface{}) {
		if err := client.Ping(ctx).Err(); err != nil {
			return StatusDegraded, "verdict cache unreachable: " + err.Error(), nil
		}
		return StatusHealthy, "", nil
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
