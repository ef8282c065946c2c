// Package healthcheck circuit breaker implementation
// Stops calling a failing dependency until it has had time to recover
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a call is rejected without being attempted
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for circuit breaker
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int `json:"failure_threshold" mapstructure:"failure_threshold"`

	// SuccessThreshold is the number of successes that closes a half-open circuit
	SuccessThreshold int `json:"success_threshold" mapstructure:"success_threshold"`

	// Timeout is how long the circuit stays open before probing again
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRequests caps concurrent probes while half-open
	MaxRequests int `json:"max_requests" mapstructure:"max_requests"`

	// OnStateChange is called when the state changes, outside the lock
	OnStateChange func(name string, from, to CircuitBreakerState) `json:"-" mapstructure:"-"`
}

// CircuitBreakerStatus represents the current status of a circuit breaker
type CircuitBreakerStatus struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	RequestCount    int64     `json:"request_count"`
	LastFailureTime time.Time `json:"last_failure_time,omitempty"`
	LastSuccessTime time.Time `json:"last_success_time,omitempty"`
	NextAttempt     time.Time `json:"next_attempt,omitempty"`
}

// CircuitBreakerStats holds statistics about circuit breaker operations
type CircuitBreakerStats struct {
	TotalRequests        int64 `json:"total_requests"`
	TotalSuccesses       int64 `json:"total_successes"`
	TotalFailures        int64 `json:"total_failures"`
	TotalRejections      int64 `json:"total_rejections"`
	ConsecutiveFailures  int   `json:"consecutive_failures"`
	ConsecutiveSuccesses int   `json:"consecutive_successes"`
}

// CircuitBreaker implements the circuit breaker pattern. The protected call
// runs without holding the lock, so concurrent callers are not serialized.
type CircuitBreaker struct {
	name            string
	config          CircuitBreakerConfig
	state           CircuitBreakerState
	stats           CircuitBreakerStats
	halfOpenFlight  int
	lastFailureTime time.Time
	lastSuccessTime time.Time
	nextAttempt     time.Time
	now             func() time.Time
	mu              sync.Mutex
}

type stateChange struct {
	from, to CircuitBreakerState
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = defaults.MaxRequests
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute runs fn if the circuit allows it and records the outcome.
// Context cancellation by the caller is not counted as a dependency failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	halfOpen, err := cb.acquire()
	if err != nil {
		return err
	}

	callErr := fn(ctx)

	switch {
	case callErr == nil:
		cb.record(halfOpen, true)
	case ctx.Err() != nil && errors.Is(callErr, ctx.Err()):
		cb.release(halfOpen)
	default:
		cb.record(halfOpen, false)
	}

	return callErr
}

func (cb *CircuitBreaker) acquire() (bool, error) {
	cb.mu.Lock()
	cb.stats.TotalRequests++

	var change *stateChange
	if cb.state == StateOpen && !cb.now().Before(cb.nextAttempt) {
		change = cb.setState(StateHalfOpen)
	}

	var err error
	halfOpen := false
	switch cb.state {
	case StateOpen:
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, cb.name)
	case StateHalfOpen:
		if cb.halfOpenFlight >= cb.config.MaxRequests {
			err = fmt.Errorf("%w: %s (half-open probe limit)", ErrCircuitOpen, cb.name)
		} else {
			cb.halfOpenFlight++
			halfOpen = true
		}
	}
	if err != nil {
		cb.stats.TotalRejections++
	}
	cb.mu.Unlock()

	cb.notify(change)
	return halfOpen, err
}

func (cb *CircuitBreaker) release(halfOpen bool) {
	cb.mu.Lock()
	if halfOpen && cb.halfOpenFlight > 0 {
		cb.halfOpenFlight--
	}
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) record(halfOpen, success bool) {
	cb.mu.Lock()
	if halfOpen && cb.halfOpenFlight > 0 {
		cb.halfOpenFlight--
	}

	var change *stateChange
	if success {
		cb.stats.TotalSuccesses++
		cb.stats.ConsecutiveFailures = 0
		cb.stats.ConsecutiveSuccesses++
		cb.lastSuccessTime = cb.now()
		if cb.state == StateHalfOpen && cb.stats.ConsecutiveSuccesses >= cb.config.SuccessThreshold {
			change = cb.setState(StateClosed)
		}
	} else {
		cb.stats.TotalFailures++
		cb.stats.ConsecutiveSuccesses = 0
		cb.stats.ConsecutiveFailures++
		cb.lastFailureTime = cb.now()
		switch cb.state {
		case StateClosed:
			if cb.stats.ConsecutiveFailures >= cb.config.FailureThreshold {
				change = cb.setState(StateOpen)
			}
		case StateHalfOpen:
			change = cb.setState(StateOpen)
		}
	}
	cb.mu.Unlock()

	cb.notify(change)
}

// setState must be called with the lock held
func (cb *CircuitBreaker) setState(newState CircuitBreakerState) *stateChange {
	if cb.state == newState {
		return nil
	}

	oldState := cb.state
	cb.state = newState

	switch newState {
	case StateOpen:
		cb.nextAttempt = cb.now().Add(cb.config.Timeout)
		cb.halfOpenFlight = 0
	case StateHalfOpen:
		cb.stats.ConsecutiveSuccesses = 0
		cb.halfOpenFlight = 0
	case StateClosed:
		cb.stats.ConsecutiveFailures = 0
		cb.stats.ConsecutiveSuccesses = 0
	}

	return &stateChange{from: oldState, to: newState}
}

func (cb *CircuitBreaker) notify(change *stateChange) {
	if change != nil && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, change.from, change.to)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStatus returns the current status of the circuit breaker
func (cb *CircuitBreaker) GetStatus() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := CircuitBreakerStatus{
		Name:            cb.name,
		State:           cb.state.String(),
		FailureCount:    cb.stats.ConsecutiveFailures,
		SuccessCount:    cb.stats.ConsecutiveSuccesses,
		RequestCount:    cb.stats.TotalRequests,
		LastFailureTime: cb.lastFailureTime,
		LastSuccessTime: cb.lastSuccessTime,
	}

	if cb.state == StateOpen {
		status.NextAttempt = cb.nextAttempt
	}

	return status
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats
}

// Reset returns the circuit breaker to its initial state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	oldState := cb.state
	cb.state = StateClosed
	cb.stats = CircuitBreakerStats{}
	cb.halfOpenFlight = 0
	cb.lastFailureTime = time.Time{}
	cb.lastSuccessTime = time.Time{}
	cb.nextAttempt = time.Time{}
	cb.mu.Unlock()

	if oldState != StateClosed {
		cb.notify(&stateChange{from: oldState, to: StateClosed})
	}
}

// ForceOpen forces the circuit breaker to open state
func (cb *CircuitBreaker) ForceOpen() {
	cb.mu.Lock()
	change := cb.setState(StateOpen)
	cb.mu.Unlock()
	cb.notify(change)
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breakers
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
	}
}
