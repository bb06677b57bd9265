package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/vietddude/matchfeed/internal/core/clock"
	"github.com/vietddude/matchfeed/internal/core/domain"
)

type fakeSession struct {
	startCalls   int
	acceptCalls  int
	declineCalls int
	resetCalls   int
	lastRequest  string
	lastFilters  domain.FetchFilters
	err          error
}

func (f *fakeSession) Start(ctx context.Context, requestID string, filters domain.FetchFilters) error {
	f.startCalls++
	f.lastRequest = requestID
	f.lastFilters = filters
	return f.err
}

func (f *fakeSession) Accept(ctx context.Context) error {
	f.acceptCalls++
	return f.err
}

func (f *fakeSession) Decline(ctx context.Context) error {
	f.declineCalls++
	return f.err
}

func (f *fakeSession) Reset() {
	f.resetCalls++
}

func newTestController() (*Controller, *fakeSession, *clock.Fake) {
	session := &fakeSession{}
	clk := clock.NewFake(time.Unix(0, 0))
	return New(session, clk, slog.Default()), session, clk
}

func TestCaptureClassifiesOnce(t *testing.T) {
	c, _, _ := newTestController()

	orig := domain.NewError(domain.KindNetworkTimeout, "timed out", nil)
	got := c.Capture(fmt.Errorf("fetch: %w", orig))
	if got != orig {
		t.Error("Expected pre-classified error to pass through")
	}

	state := c.State()
	if !state.HasError {
		t.Error("Expected error state set")
	}
	if state.Message == "" {
		t.Error("Expected a user-facing message")
	}
}

func TestCaptureNil(t *testing.T) {
	c, _, _ := newTestController()
	if c.Capture(nil) != nil {
		t.Error("Expected nil passthrough")
	}
	if c.State().HasError {
		t.Error("Expected no error state")
	}
}

func TestHistoryBounded(t *testing.T) {
	c, _, _ := newTestController()

	for i := 0; i < 8; i++ {
		c.Capture(fmt.Errorf("failure %d", i))
	}

	state := c.State()
	if len(state.History) != 5 {
		t.Fatalf("Expected history bounded to 5, got %d", len(state.History))
	}
	// Oldest retained entry is failure 3.
	if state.History[0].Err.Err.Error() != "failure 3" {
		t.Errorf("Expected oldest retained to be failure 3, got %v", state.History[0].Err.Err)
	}
}

func TestRetryLastFetch(t *testing.T) {
	c, session, _ := newTestController()
	filters := domain.FetchFilters{ZodiacSign: "Leo", Limit: 5}

	c.RecordOperation(Operation{Type: OpFetch, RequestID: "req-1", Filters: filters})
	c.Capture(errors.New("boom"))

	if err := c.RetryLast(context.Background()); err != nil {
		t.Fatalf("RetryLast failed: %v", err)
	}

	if session.startCalls != 1 {
		t.Errorf("Expected fetch replayed, got %d start calls", session.startCalls)
	}
	if session.lastRequest != "req-1" || session.lastFilters.ZodiacSign != "Leo" {
		t.Error("Expected recorded params replayed")
	}
	if c.State().HasError {
		t.Error("Expected error cleared before retry")
	}
	if c.State().RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", c.State().RetryCount)
	}
}

func TestRetryLastAcceptAndDecline(t *testing.T) {
	c, session, _ := newTestController()
	ctx := context.Background()

	c.RecordOperation(Operation{Type: OpAccept})
	c.RetryLast(ctx)
	if session.acceptCalls != 1 {
		t.Errorf("Expected accept replayed, got %d", session.acceptCalls)
	}

	c.RecordOperation(Operation{Type: OpDecline})
	c.RetryLast(ctx)
	if session.declineCalls != 1 {
		t.Errorf("Expected decline replayed, got %d", session.declineCalls)
	}
}

func TestRetryFailureIsCaptured(t *testing.T) {
	c, session, _ := newTestController()
	ctx := context.Background()

	c.RecordOperation(Operation{Type: OpFetch, RequestID: "req-1"})
	c.Capture(errors.New("first failure"))

	// The replay fails too; the new error must be stored like any other.
	session.err = domain.NewError(domain.KindNetworkTimeout, "still down", nil)
	err := c.RetryLast(ctx)
	if err == nil {
		t.Fatal("Expected retry failure")
	}

	state := c.State()
	if !state.HasError {
		t.Error("Expected error state set after failed retry")
	}
	if state.Current == nil || state.Current.Kind != domain.KindNetworkTimeout {
		t.Errorf("Expected retry failure stored as current, got %v", state.Current)
	}
	if len(state.History) != 2 {
		t.Errorf("Expected both failures in history, got %d", len(state.History))
	}
}

func TestRetryLastMissingOperationIsNoop(t *testing.T) {
	c, session, _ := newTestController()

	if err := c.RetryLast(context.Background()); err != nil {
		t.Fatalf("Expected no-op, got %v", err)
	}
	if session.startCalls+session.acceptCalls+session.declineCalls != 0 {
		t.Error("Expected no session call without recorded operation")
	}
}

func TestRetryLastUnknownOperationIsNoop(t *testing.T) {
	c, session, _ := newTestController()

	c.RecordOperation(Operation{Type: OpType("teleport")})
	if err := c.RetryLast(context.Background()); err != nil {
		t.Fatalf("Expected no-op, got %v", err)
	}
	if session.startCalls+session.acceptCalls+session.declineCalls != 0 {
		t.Error("Expected no session call for unknown operation")
	}
}

func TestRecoverResetsLocally(t *testing.T) {
	c, session, _ := newTestController()

	c.Capture(errors.New("boom"))
	c.Recover()

	if session.resetCalls != 1 {
		t.Errorf("Expected session reset, got %d", session.resetCalls)
	}
	if session.startCalls != 0 {
		t.Error("Expected no network replay during recovery")
	}

	state := c.State()
	if state.HasError {
		t.Error("Expected error cleared after recovery")
	}
	if state.RecoveryAttempts != 1 {
		t.Errorf("Expected recovery attempts 1, got %d", state.RecoveryAttempts)
	}
	if state.IsRecovering {
		t.Error("Expected recovery finished")
	}
	// History is preserved for diagnostics.
	if len(state.History) != 1 {
		t.Errorf("Expected history preserved, got %d", len(state.History))
	}
}

func TestClearError(t *testing.T) {
	c, _, _ := newTestController()

	c.Capture(errors.New("boom"))
	c.ClearError()

	state := c.State()
	if state.HasError {
		t.Error("Expected error cleared")
	}
	if len(state.History) != 1 {
		t.Error("Expected history untouched by clear")
	}
}
