// Package clock provides the time source used by render throttling and
// subscription retry timers so they can be driven deterministically in tests.
package clock

import "time"

// Clock is a source of the current time and of timers.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a single-shot timer. C returns the channel the expiry time is
// delivered on. Stop prevents the timer from firing and reports whether the
// call stopped it.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// New returns a Clock backed by the time package.
func New() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time {
	return r.t.C
}

func (r *realTimer) Stop() bool {
	return r.t.Stop()
}
