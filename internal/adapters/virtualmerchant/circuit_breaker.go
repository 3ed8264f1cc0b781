package virtualmerchant

import (
	"context"
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of the transport circuit breaker
type BreakerState int

const (
	// BreakerClosed - requests reach the gateway
	BreakerClosed BreakerState = iota
	// BreakerOpen - requests fail fast without a network call
	BreakerOpen
	// BreakerHalfOpen - a limited number of probe requests are let through
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while the breaker rejects requests
	ErrCircuitOpen = errors.New("gateway circuit breaker is open")
	// ErrProbeInFlight is returned when the half-open probe budget is used up
	ErrProbeInFlight = errors.New("gateway circuit breaker is probing")
)

// BreakerConfig configures the transport circuit breaker
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transport failures that opens the breaker
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
	// HalfOpenProbes is how many requests may be in flight while half-open
	HalfOpenProbes uint32
}

// DefaultBreakerConfig returns the breaker settings used by NewHTTPTransport
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenProbes:   1,
	}
}

// CircuitBreaker guards the gateway endpoint. It only counts transport
// failures; a decline is a successful round trip. It never retries.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  uint32
	probes    uint32
	changedAt time.Time
	config    BreakerConfig

	now           func() time.Time
	onStateChange func(from, to BreakerState)
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		state:     BreakerClosed,
		changedAt: time.Now(),
		config:    config,
		now:       time.Now,
	}
}

// OnStateChange registers a callback invoked (under the breaker lock) on every transition
func (cb *CircuitBreaker) OnStateChange(fn func(from, to BreakerState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn if the breaker allows it and records the outcome
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

// ExecuteContext is Execute for a call bound to ctx. A failure after the
// caller cancelled or timed out ctx says nothing about the gateway and is
// not counted; a cancelled ctx is returned before fn runs.
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		cb.release()
		return err
	}
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if cb.now().Sub(cb.changedAt) < cb.config.OpenTimeout {
			return ErrCircuitOpen
		}
		cb.transition(BreakerHalfOpen)
		cb.probes++
		return nil
	case BreakerHalfOpen:
		if cb.probes >= cb.config.HalfOpenProbes {
			return ErrProbeInFlight
		}
		cb.probes++
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == BreakerHalfOpen {
			cb.transition(BreakerClosed)
		}
		cb.failures = 0
		return
	}

	cb.failures++
	switch cb.state {
	case BreakerClosed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		cb.transition(BreakerOpen)
	}
}

// release gives back a half-open probe slot without recording an outcome
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == BreakerHalfOpen && cb.probes > 0 {
		cb.probes--
	}
}

// transition must be called with mu held
func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.changedAt = cb.now()
	cb.probes = 0
	if to != BreakerOpen {
		cb.failures = 0
	}
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

// State returns the current breaker state
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
