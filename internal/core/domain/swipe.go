package domain

// SwipeType is a user decision on a candidate.
type SwipeType string

const (
	SwipeLike SwipeType = "like"
	SwipePass SwipeType = "pass"
)

// Valid reports whether the swipe type is one the backend accepts.
func (t SwipeType) Valid() bool {
	return t == SwipeLike || t == SwipePass
}

// MatchOutcome reports whether a swipe created a mutual match.
type MatchOutcome struct {
	MatchCreated bool           `json:"match_created"`
	MatchDetails map[string]any `json:"match_details,omitempty"`
}

// Swipe is the recorded decision as echoed back by the backend.
type Swipe struct {
	SwipedID  string    `json:"swiped_id"`
	SwipeType SwipeType `json:"swipe_type"`
}

// SwipeResult is the full response of the swipe-record endpoint.
type SwipeResult struct {
	Swipe Swipe        `json:"swipe"`
	Match MatchOutcome `json:"match"`
}

// ConfirmResult is the response of the confirm-match endpoint.
type ConfirmResult struct {
	Success        bool   `json:"success"`
	MatchID        string `json:"match_id"`
	ConversationID string `json:"conversation_id"`
}
