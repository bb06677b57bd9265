package recovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/matchfeed/internal/core/clock"
	"github.com/vietddude/matchfeed/internal/core/domain"
	"github.com/vietddude/matchfeed/internal/matching/metrics"
)

// historyLimit bounds the retained error history.
const historyLimit = 5

// OpType identifies a replayable operation.
type OpType string

const (
	OpFetch   OpType = "fetch"
	OpAccept  OpType = "accept"
	OpDecline OpType = "decline"
)

// Operation is the last user-visible operation, kept for explicit retry.
// Overwritten on each operation.
type Operation struct {
	Type      OpType
	RequestID string
	Filters   domain.FetchFilters
}

// SessionOps is the slice of session behavior the controller can replay
// or reset.
type SessionOps interface {
	Start(ctx context.Context, requestID string, filters domain.FetchFilters) error
	Accept(ctx context.Context) error
	Decline(ctx context.Context) error
	Reset()
}

// Record is one captured error with its capture time.
type Record struct {
	Err *domain.Error
	At  time.Time
}

// ErrorState is a snapshot of the controller for the UI.
type ErrorState struct {
	HasError         bool
	Current          *domain.Error
	Message          string
	History          []Record
	RetryCount       int
	RecoveryAttempts int
	IsRecovering     bool
}

// Controller classifies errors once at the boundary, bounds the error
// history, and exposes the explicit retry/recover operations. It never
// retries on its own.
type Controller struct {
	mu               sync.Mutex
	current          *domain.Error
	history          []Record
	retryCount       int
	recoveryAttempts int
	recovering       bool
	lastOp           *Operation

	session SessionOps
	clk     clock.Clock
	log     *slog.Logger
}

// New creates an error recovery controller.
func New(session SessionOps, clk clock.Clock, log *slog.Logger) *Controller {
	return &Controller{
		session: session,
		clk:     clk,
		log:     log,
	}
}

// Capture classifies err, stores it as the current error, and appends it to
// the bounded history. Returns the classified error for the caller to
// surface. Nil in, nil out.
func (c *Controller) Capture(err error) *domain.Error {
	if err == nil {
		return nil
	}

	classified := domain.Classify(err)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = classified
	c.history = append(c.history, Record{Err: classified, At: c.clk.Now()})
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}

	c.log.Error("Operation failed",
		"kind", classified.Kind.String(),
		"category", string(classified.Kind.Category()),
		"error", classified)
	return classified
}

// RecordOperation notes the last user-visible operation for retry.
func (c *Controller) RecordOperation(op Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastOp = &op
}

// RetryLast replays the last recorded operation. A missing or unknown
// record is a no-op with a logged warning. The retry itself is explicit;
// nothing here loops. A failed replay is captured like any other error so
// the UI keeps its retry affordance.
func (c *Controller) RetryLast(ctx context.Context) error {
	c.mu.Lock()
	op := c.lastOp
	c.retryCount++
	c.mu.Unlock()

	if op == nil {
		c.log.Warn("Retry requested with no recorded operation")
		return nil
	}

	c.ClearError()

	var err error
	switch op.Type {
	case OpFetch:
		err = c.session.Start(ctx, op.RequestID, op.Filters)
	case OpAccept:
		err = c.session.Accept(ctx)
	case OpDecline:
		err = c.session.Decline(ctx)
	default:
		c.log.Warn("Retry requested for unknown operation", "type", string(op.Type))
		return nil
	}
	if err != nil {
		return c.Capture(err)
	}
	return nil
}

// Recover performs a full local reset without any network calls: the
// wired Reset tears down queue, timers, in-flight flags, and cached
// candidates, then error state is cleared.
func (c *Controller) Recover() {
	c.mu.Lock()
	c.recovering = true
	c.recoveryAttempts++
	c.mu.Unlock()

	c.session.Reset()
	metrics.RecoveriesTotal.Inc()

	c.mu.Lock()
	c.current = nil
	c.recovering = false
	c.mu.Unlock()

	c.log.Info("Recovered from error state")
}

// ClearError drops the current error without touching history or session.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// State returns a snapshot for the UI.
func (c *Controller) State() ErrorState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := ErrorState{
		HasError:         c.current != nil,
		Current:          c.current,
		History:          append([]Record(nil), c.history...),
		RetryCount:       c.retryCount,
		RecoveryAttempts: c.recoveryAttempts,
		IsRecovering:     c.recovering,
	}
	if c.current != nil {
		state.Message = c.current.UserMessage()
	}
	return state
}
