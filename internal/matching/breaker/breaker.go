package breaker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/matchfeed/internal/core/clock"
	"github.com/vietddude/matchfeed/internal/core/domain"
	"github.com/vietddude/matchfeed/internal/matching/metrics"
)

// Operation is a single guarded call.
type Operation func(ctx context.Context) (any, error)

// Fallback substitutes a result while the circuit is open.
type Fallback func() (any, error)

// Config holds circuit breaker tuning.
type Config struct {
	Threshold int           // consecutive failures before opening
	Cooldown  time.Duration // open-state duration before a trial call
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Threshold: 3,
	Cooldown:  30 * time.Second,
}

// Snapshot is a point-in-time view of the breaker.
type Snapshot struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// Breaker gates calls to a failing dependency. It makes exactly one attempt
// per Execute and never retries internally: on repeated failure it opens,
// after the cool-down a single trial call half-opens it.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time

	cfg           Config
	clk           clock.Clock
	log           *slog.Logger
	stateCallback func(Transition)
}

// New creates a closed breaker.
func New(cfg Config, clk clock.Clock, log *slog.Logger) *Breaker {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultConfig.Threshold
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultConfig.Cooldown
	}
	return &Breaker{
		state: StateClosed,
		cfg:   cfg,
		clk:   clk,
		log:   log,
	}
}

// SetStateChangeCallback registers a callback for state changes.
func (b *Breaker) SetStateChangeCallback(fn func(Transition)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateCallback = fn
}

// Execute runs op through the breaker. While open and inside the cool-down,
// it calls fallback if provided, otherwise fails with
// EXTERNAL_SERVICE_UNAVAILABLE without invoking op. Once the cool-down has
// elapsed the breaker half-opens and op gets a single trial attempt.
func (b *Breaker) Execute(ctx context.Context, op Operation, fallback Fallback) (any, error) {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.clk.Now().Sub(b.lastFailure) < b.cfg.Cooldown {
			b.mu.Unlock()
			if fallback != nil {
				return fallback()
			}
			return nil, domain.NewError(domain.KindServiceUnavailable,
				"circuit open, service temporarily unavailable", nil)
		}
		b.transition(StateHalfOpen, "cool-down elapsed, trial call")
	}
	b.mu.Unlock()

	result, err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = b.clk.Now()
		if b.state == StateHalfOpen {
			b.transition(StateOpen, "trial call failed")
		} else if b.failures >= b.cfg.Threshold && b.state == StateClosed {
			b.transition(StateOpen, "failure threshold reached")
		}
		return nil, err
	}

	b.failures = 0
	if b.state == StateHalfOpen {
		b.transition(StateClosed, "trial call succeeded")
	}
	return result, nil
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// GetSnapshot returns a point-in-time view of the breaker.
func (b *Breaker) GetSnapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		State:       b.state,
		Failures:    b.failures,
		LastFailure: b.lastFailure,
	}
}

// Reset forces the breaker back to closed. Used by explicit recovery only.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	metrics.CircuitState.Set(float64(StateClosed))
}

// transition changes state with validation. Caller must hold b.mu.
func (b *Breaker) transition(to State, reason string) {
	if !CanTransition(b.state, to) {
		b.log.Warn("Rejected circuit transition",
			"from", b.state.String(), "to", to.String(), "reason", reason)
		return
	}

	t := NewTransition(b.state, to, reason, b.clk.Now())
	b.state = to
	metrics.CircuitState.Set(float64(to))
	b.log.Info("Circuit state changed",
		"from", t.From.String(), "to", t.To.String(), "reason", reason)

	if b.stateCallback != nil {
		// Callback runs outside the lock to avoid re-entrant deadlock.
		go b.stateCallback(t)
	}
}
