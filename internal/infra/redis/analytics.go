package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/matchfeed/internal/matching/swipe"
)

// maxQueuedEvents caps the analytics list so an unreachable consumer never
// grows it unbounded.
const maxQueuedEvents = 10000

// AnalyticsSink publishes swipe events to a Redis list. Delivery is
// best-effort; callers are expected to swallow failures.
type AnalyticsSink struct {
	client *Client
}

// NewAnalyticsSink creates a Redis-backed analytics sink.
func NewAnalyticsSink(client *Client) *AnalyticsSink {
	return &AnalyticsSink{client: client}
}

func (s *AnalyticsSink) eventsKey() string {
	return "analytics:swipe_events"
}

// Publish appends one event and trims the list to the newest entries.
func (s *AnalyticsSink) Publish(ctx context.Context, event swipe.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := s.eventsKey()
	if err := s.client.rdb.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to push event: %w", err)
	}
	if err := s.client.rdb.LTrim(ctx, key, 0, maxQueuedEvents-1).Err(); err != nil {
		return fmt.Errorf("failed to trim event list: %w", err)
	}
	return nil
}
