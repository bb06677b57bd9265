package swipe

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/matchfeed/internal/core/domain"
)

// API posts swipe decisions to the matching service.
type API interface {
	RecordSwipe(ctx context.Context, swipedID string, swipeType domain.SwipeType) (*domain.SwipeResult, error)
}

// ViewedMarker records that a candidate has been seen.
type ViewedMarker interface {
	RecordViewed(id string)
}

// Event is an analytics record of a swipe decision.
type Event struct {
	ID           string    `json:"id"`
	SwipedID     string    `json:"swiped_id"`
	SwipeType    string    `json:"swipe_type"`
	MatchCreated bool      `json:"match_created"`
	Timestamp    time.Time `json:"timestamp"`
}

// Analytics receives swipe events. Implementations are best-effort; the
// recorder swallows every failure they produce.
type Analytics interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder posts accept/decline decisions and interprets match-creation
// results. The viewed set is updated before the network call so viewed
// state stays correct even when the call fails.
type Recorder struct {
	api       API
	viewed    ViewedMarker
	analytics Analytics
	log       *slog.Logger
}

// New creates a swipe recorder. analytics may be nil to disable the sink.
func New(api API, viewed ViewedMarker, analytics Analytics, log *slog.Logger) *Recorder {
	return &Recorder{
		api:       api,
		viewed:    viewed,
		analytics: analytics,
		log:       log,
	}
}

// Record validates and posts a swipe. The match-creation flag and details
// in the result pass through unchanged for navigation handoff.
func (r *Recorder) Record(ctx context.Context, swipedID string, swipeType domain.SwipeType) (*domain.SwipeResult, error) {
	if !swipeType.Valid() {
		return nil, domain.NewError(domain.KindValidation,
			"swipe type must be 'like' or 'pass'", nil)
	}

	// Mark viewed before the call; a failed POST must not un-view.
	r.viewed.RecordViewed(swipedID)

	result, err := r.api.RecordSwipe(ctx, swipedID, swipeType)
	if err != nil {
		return nil, domain.Classify(err)
	}

	r.fireAnalytics(swipedID, swipeType, result.Match.MatchCreated)
	return result, nil
}

// fireAnalytics publishes a swipe event without blocking the caller.
// Analytics failures never reach the primary operation.
func (r *Recorder) fireAnalytics(swipedID string, swipeType domain.SwipeType, matchCreated bool) {
	if r.analytics == nil {
		return
	}

	event := Event{
		ID:           uuid.NewString(),
		SwipedID:     swipedID,
		SwipeType:    string(swipeType),
		MatchCreated: matchCreated,
		Timestamp:    time.Now(),
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Warn("Analytics publish panicked", "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.analytics.Publish(ctx, event); err != nil {
			r.log.Warn("Analytics publish failed", "error", err, "event_id", event.ID)
		}
	}()
}
