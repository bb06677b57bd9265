package session

import (
	"time"
)

// Phase is the lifecycle state of one presentation session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhasePresenting
	PhaseDelaying
	PhaseExhausted
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhasePresenting:
		return "presenting"
	case PhaseDelaying:
		return "delaying"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ValidTransitions defines allowed phase transitions.
// Key is the current phase, value is the list of valid next phases.
// Every phase may return to idle through an explicit reset.
var ValidTransitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseFetching},
	PhaseFetching:   {PhasePresenting, PhaseExhausted, PhaseIdle},
	PhasePresenting: {PhaseDelaying, PhaseExhausted, PhaseIdle},
	PhaseDelaying:   {PhasePresenting, PhaseExhausted, PhaseIdle},
	PhaseExhausted:  {PhaseIdle},
}

// CanTransition checks if a transition from one phase to another is valid.
func CanTransition(from, to Phase) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// Transition represents a phase change with metadata.
type Transition struct {
	From      Phase
	To        Phase
	Reason    string
	Timestamp time.Time
}
