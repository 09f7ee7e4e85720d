// Package circuitbreaker implements the circuit breaker pattern. It keeps a
// flapping cache or database from dragging every leaderboard read into a
// timeout: after repeated failures calls fail fast until a probe succeeds.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed is the normal state - requests are allowed through.
	StateClosed State = iota
	// StateOpen is the failure state - requests are blocked.
	StateOpen
	// StateHalfOpen is the recovery state - limited probe requests allowed.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit is open and requests are blocked.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is exhausted.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config holds circuit breaker configuration. Zero fields take defaults:
// 5 consecutive failures to open, 2 successes to close, 30s open timeout,
// 1 half-open probe.
type Config struct {
	// Name identifies this breaker in logs.
	Name string

	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold int

	// SuccessThreshold is the consecutive-success count in half-open state
	// that closes the circuit.
	SuccessThreshold int

	// Timeout is how long the circuit stays open before allowing probes.
	Timeout time.Duration

	// MaxHalfOpenRequests caps in-flight probes in half-open state.
	MaxHalfOpenRequests int

	// OnStateChange is called on every transition, for logging.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the circuit.
	// When nil, every non-nil error counts.
	IsFailure func(error) bool
}

func (c Config) normalize() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxHalfOpenRequests <= 0 {
		c.MaxHalfOpenRequests = 1
	}
	return c
}

// Counts holds request statistics for the circuit breaker.
type Counts struct {
	Requests             int
	TotalSuccesses       int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

// CircuitBreaker guards calls to one downstream dependency.
type CircuitBreaker struct {
	config Config

	mu               sync.Mutex
	state            State
	counts           Counts
	lastFailureTime  time.Time
	halfOpenRequests int
}

// New creates a CircuitBreaker from the config, filling in defaults.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		config: cfg.normalize(),
		state:  StateClosed,
	}
}

// Execute runs fn if the circuit allows it and records the result.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

// ExecuteWithFallback runs fn, invoking fallback when the circuit rejects
// the call. Errors from fn itself are returned as-is.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func(context.Context) error, fallback func(error) error) error {
	err := cb.Execute(ctx, fn)
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		return fallback(err)
	}
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.lastFailureTime) >= cb.config.Timeout {
			cb.setState(StateHalfOpen)
			cb.halfOpenRequests = 1
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if cb.halfOpenRequests < cb.config.MaxHalfOpenRequests {
			cb.halfOpenRequests++
			return nil
		}
		return ErrTooManyRequests

	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.counts.Requests++

	isFailure := err != nil
	if cb.config.IsFailure != nil && err != nil {
		isFailure = cb.config.IsFailure(err)
	}

	if isFailure {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.counts.TotalSuccesses++
	cb.counts.ConsecutiveSuccesses++
	cb.counts.ConsecutiveFailures = 0

	if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.setState(StateClosed)
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.config.FailureThreshold {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		// Any failure during a probe reopens the circuit.
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) setState(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.counts.ConsecutiveSuccesses = 0
	cb.counts.ConsecutiveFailures = 0
	cb.halfOpenRequests = 0

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, oldState, newState)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the current request statistics.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset returns the circuit breaker to its initial closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.counts = Counts{}
	cb.halfOpenRequests = 0
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Preset configurations.

// CacheBreaker guards the leaderboard cache. Opens quickly and recovers
// quickly: reads fall back to storage while the cache is unavailable.
func CacheBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Config{
		Name:                "leaderboard-cache",
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             15 * time.Second,
		MaxHalfOpenRequests: 2,
		OnStateChange:       onStateChange,
	})
}

// DatabaseBreaker guards direct database reads.
func DatabaseBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Config{
		Name:                "database",
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             10 * time.Second,
		MaxHalfOpenRequests: 1,
		OnStateChange:       onStateChange,
	})
}
