package swipe

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/matchfeed/internal/core/domain"
)

type fakeAPI struct {
	err    error
	result *domain.SwipeResult
	calls  int
}

func (f *fakeAPI) RecordSwipe(ctx context.Context, swipedID string, swipeType domain.SwipeType) (*domain.SwipeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeViewed struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeViewed) RecordViewed(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

func (f *fakeViewed) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeAnalytics struct {
	mu     sync.Mutex
	events []Event
	err    error
	done   chan struct{}
}

func (f *fakeAnalytics) Publish(ctx context.Context, event Event) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return f.err
}

func okResult(created bool) *domain.SwipeResult {
	return &domain.SwipeResult{
		Swipe: domain.Swipe{SwipedID: "u1", SwipeType: domain.SwipeLike},
		Match: domain.MatchOutcome{MatchCreated: created},
	}
}

func TestRecordRejectsInvalidType(t *testing.T) {
	api := &fakeAPI{}
	r := New(api, &fakeViewed{}, nil, slog.Default())

	_, err := r.Record(context.Background(), "u1", "superlike")

	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindValidation {
		t.Errorf("Expected validation error, got %v", err)
	}
	if api.calls != 0 {
		t.Error("Expected no API call for invalid type")
	}
}

func TestRecordMarksViewedBeforeCall(t *testing.T) {
	api := &fakeAPI{err: errors.New("backend down")}
	viewed := &fakeViewed{}
	r := New(api, viewed, nil, slog.Default())

	_, err := r.Record(context.Background(), "u1", domain.SwipeLike)
	if err == nil {
		t.Fatal("Expected error from backend")
	}

	// Viewed even though the call failed.
	if !viewed.has("u1") {
		t.Error("Expected u1 marked viewed despite failed call")
	}
}

func TestRecordReturnsMatchResult(t *testing.T) {
	api := &fakeAPI{result: okResult(true)}
	r := New(api, &fakeViewed{}, nil, slog.Default())

	result, err := r.Record(context.Background(), "u1", domain.SwipeLike)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !result.Match.MatchCreated {
		t.Error("Expected match-created flag passed through")
	}
}

func TestRecordFiresAnalytics(t *testing.T) {
	api := &fakeAPI{result: okResult(false)}
	analytics := &fakeAnalytics{done: make(chan struct{})}
	r := New(api, &fakeViewed{}, analytics, slog.Default())

	if _, err := r.Record(context.Background(), "u1", domain.SwipePass); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	select {
	case <-analytics.done:
	case <-time.After(time.Second):
		t.Fatal("Expected analytics event")
	}

	analytics.mu.Lock()
	defer analytics.mu.Unlock()
	if len(analytics.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(analytics.events))
	}
	if analytics.events[0].SwipedID != "u1" || analytics.events[0].SwipeType != "pass" {
		t.Errorf("Unexpected event: %+v", analytics.events[0])
	}
}

func TestRecordSwallowsAnalyticsFailure(t *testing.T) {
	api := &fakeAPI{result: okResult(false)}
	analytics := &fakeAnalytics{err: errors.New("sink down"), done: make(chan struct{})}
	r := New(api, &fakeViewed{}, analytics, slog.Default())

	result, err := r.Record(context.Background(), "u1", domain.SwipeLike)
	if err != nil {
		t.Fatalf("Expected success despite analytics failure, got %v", err)
	}
	if result == nil {
		t.Fatal("Expected result")
	}
	<-analytics.done
}

func TestRecordClassifiesAPIError(t *testing.T) {
	api := &fakeAPI{err: domain.NewError(domain.KindAuthTokenExpired, "expired", nil)}
	r := New(api, &fakeViewed{}, nil, slog.Default())

	_, err := r.Record(context.Background(), "u1", domain.SwipeLike)

	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindAuthTokenExpired {
		t.Errorf("Expected AUTH_TOKEN_EXPIRED to pass through, got %v", err)
	}
}
