package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/matchfeed/internal/core/clock"
	"github.com/vietddude/matchfeed/internal/core/domain"
	"github.com/vietddude/matchfeed/internal/matching/metrics"
)

// timerDeclineReoffer names the single delayed re-presentation timer.
const timerDeclineReoffer = "decline-reoffer"

// Loader performs the initial candidate fetch for a session.
type Loader interface {
	LoadInitial(ctx context.Context, filters domain.FetchFilters) ([]domain.Candidate, error)
}

// SwipeRecorder records decline interactions.
type SwipeRecorder interface {
	Record(ctx context.Context, swipedID string, swipeType domain.SwipeType) (*domain.SwipeResult, error)
}

// MatchConfirmer confirms an accepted match.
type MatchConfirmer interface {
	ConfirmMatch(ctx context.Context, targetUserID, requestID string) (*domain.ConfirmResult, error)
}

// Callbacks deliver session outcomes to the UI/navigation collaborators.
// Nil callbacks are skipped.
type Callbacks struct {
	// OnPresent fires when a candidate becomes the current one.
	OnPresent func(candidate domain.Candidate)

	// OnMatchConfirmed fires after a successful accept, with the
	// conversation id for navigation handoff.
	OnMatchConfirmed func(conversationID string)

	// OnNoMatches fires when a session starts with no candidates.
	OnNoMatches func()
}

// Controller orders candidates for display one at a time per match request.
// Lifecycle: idle -> fetching -> presenting <-> delaying -> exhausted.
type Controller struct {
	mu              sync.Mutex
	phase           Phase
	activeRequestID string
	queue           []domain.Candidate
	current         *domain.Candidate
	deciding        bool

	loader       Loader
	swipes       SwipeRecorder
	matches      MatchConfirmer
	timers       *timerSet
	declineDelay time.Duration
	clk          clock.Clock
	cb           Callbacks
	log          *slog.Logger
}

// NewController creates an idle session controller.
func NewController(
	loader Loader,
	swipes SwipeRecorder,
	matches MatchConfirmer,
	clk clock.Clock,
	declineDelay time.Duration,
	cb Callbacks,
	log *slog.Logger,
) *Controller {
	return &Controller{
		phase:        PhaseIdle,
		loader:       loader,
		swipes:       swipes,
		matches:      matches,
		timers:       newTimerSet(clk),
		declineDelay: declineDelay,
		clk:          clk,
		cb:           cb,
		log:          log,
	}
}

// Start begins fetching potential matches for a request. Idempotent: a
// call while a fetch is in flight, or with the currently active request id,
// is a no-op. A fresh id resets queue, current candidate, and timers before
// the initial fetch.
func (c *Controller) Start(ctx context.Context, requestID string, filters domain.FetchFilters) error {
	c.mu.Lock()
	if c.phase == PhaseFetching {
		c.mu.Unlock()
		return nil
	}
	if requestID != "" && requestID == c.activeRequestID {
		c.mu.Unlock()
		return nil
	}

	c.resetLocked()
	c.transition(PhaseFetching, "match request started")
	c.activeRequestID = requestID
	c.mu.Unlock()

	batch, err := c.loader.LoadInitial(ctx, filters)

	c.mu.Lock()
	// A reset or newer request may have superseded this fetch mid-flight.
	if c.activeRequestID != requestID || c.phase != PhaseFetching {
		c.mu.Unlock()
		return nil
	}

	if err != nil {
		c.transition(PhaseExhausted, "initial fetch failed")
		c.activeRequestID = ""
		c.mu.Unlock()
		return domain.Classify(err)
	}

	if len(batch) == 0 {
		c.transition(PhaseExhausted, "no matches available")
		c.activeRequestID = ""
		c.mu.Unlock()
		if c.cb.OnNoMatches != nil {
			c.cb.OnNoMatches()
		}
		return nil
	}

	c.queue = append(c.queue, batch...)
	metrics.QueueDepth.Set(float64(len(c.queue)))
	cand, _ := c.presentNextLocked("initial batch ready")
	c.mu.Unlock()

	if c.cb.OnPresent != nil {
		c.cb.OnPresent(cand)
	}
	return nil
}

// Accept confirms the current candidate as a match. No-op without a current
// candidate or while another accept/decline is in flight. On failure the
// queue and current candidate stay untouched so a retry replays safely.
func (c *Controller) Accept(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil || c.deciding {
		c.mu.Unlock()
		return nil
	}
	c.deciding = true
	cand := *c.current
	requestID := c.activeRequestID
	c.mu.Unlock()

	result, err := c.matches.ConfirmMatch(ctx, cand.ID, requestID)

	c.mu.Lock()
	c.deciding = false
	if err != nil {
		c.mu.Unlock()
		return domain.Classify(err)
	}

	c.current = nil
	c.queue = nil
	c.timers.StopAll()
	metrics.QueueDepth.Set(0)
	c.transition(PhaseExhausted, "match confirmed")
	c.activeRequestID = ""
	c.mu.Unlock()

	if c.cb.OnMatchConfirmed != nil {
		c.cb.OnMatchConfirmed(result.ConversationID)
	}
	return nil
}

// Decline drops the current candidate. The "not interested" interaction is
// recorded best-effort without blocking. With queued candidates remaining, a
// single delayed timer re-offers the next one; a newer decline replaces the
// pending timer. With an empty queue the session ends.
func (c *Controller) Decline(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil || c.deciding {
		c.mu.Unlock()
		return nil
	}

	cand := *c.current
	c.current = nil

	go func() {
		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.swipes.Record(recordCtx, cand.ID, domain.SwipePass); err != nil {
			c.log.Warn("Decline interaction record failed", "candidate", cand.ID, "error", err)
		}
	}()

	if len(c.queue) > 0 {
		c.transition(PhaseDelaying, "decline pacing delay")
		c.timers.Schedule(timerDeclineReoffer, c.declineDelay, c.reoffer)
	} else {
		c.transition(PhaseExhausted, "queue exhausted after decline")
		c.activeRequestID = ""
	}
	c.mu.Unlock()
	return nil
}

// reoffer presents the next queued candidate after the decline delay.
func (c *Controller) reoffer() {
	c.mu.Lock()
	if c.phase != PhaseDelaying {
		c.mu.Unlock()
		return
	}

	cand, ok := c.presentNextLocked("decline delay elapsed")
	if !ok {
		c.transition(PhaseExhausted, "queue empty at re-offer")
		c.activeRequestID = ""
		c.mu.Unlock()
		return
	}
	metrics.DeclineReoffers.Inc()
	c.mu.Unlock()

	if c.cb.OnPresent != nil {
		c.cb.OnPresent(cand)
	}
}

// Reset performs a full local teardown without network calls: pending
// timers, queue, current candidate, in-flight flags, and request id.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Current returns a copy of the current candidate, if any.
func (c *Controller) Current() (domain.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Candidate{}, false
	}
	return *c.current, true
}

// Phase returns the current session phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ActiveRequestID returns the id of the active match request, if any.
func (c *Controller) ActiveRequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRequestID
}

// QueueLen returns the number of candidates awaiting presentation.
func (c *Controller) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// PendingTimers returns the number of armed session timers.
func (c *Controller) PendingTimers() int {
	return c.timers.Pending()
}

// presentNextLocked pops the queue head into current. Caller must hold c.mu.
func (c *Controller) presentNextLocked(reason string) (domain.Candidate, bool) {
	if len(c.queue) == 0 {
		return domain.Candidate{}, false
	}

	cand := c.queue[0]
	c.queue = c.queue[1:]
	c.current = &cand
	metrics.QueueDepth.Set(float64(len(c.queue)))
	c.transition(PhasePresenting, reason)
	return cand, true
}

// resetLocked clears all session state. Caller must hold c.mu.
func (c *Controller) resetLocked() {
	c.timers.StopAll()
	c.queue = nil
	c.current = nil
	c.deciding = false
	c.activeRequestID = ""
	metrics.QueueDepth.Set(0)
	if c.phase != PhaseIdle {
		c.transition(PhaseIdle, "session reset")
	}
}

// transition changes phase with validation. Caller must hold c.mu.
func (c *Controller) transition(to Phase, reason string) {
	if !CanTransition(c.phase, to) {
		c.log.Warn("Rejected session transition",
			"from", c.phase.String(), "to", to.String(), "reason", reason)
		return
	}

	c.log.Debug("Session phase changed",
		"from", c.phase.String(), "to", to.String(), "reason", reason)
	c.phase = to
}
