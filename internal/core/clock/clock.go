package clock

import "time"

// Clock abstracts time access and timer scheduling so pacing policy can be
// tested with a virtual clock instead of real timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules fn to run after d and returns a stoppable timer.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired or stopped.
	Stop() bool
}

// Real is the wall-clock implementation backed by the time package.
type Real struct{}

// NewReal creates a wall-clock Clock.
func NewReal() *Real {
	return &Real{}
}

// Now returns the current wall-clock time.
func (*Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn on a real time.Timer.
func (*Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
