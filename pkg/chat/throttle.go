package chat

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/streamline/pkg/clock"
)

// DefaultRenderWindow is the minimum spacing between non-final renders.
const DefaultRenderWindow = 100 * time.Millisecond

// Throttle rate-limits renders to one per window. Updates that arrive inside
// a window collapse into a single trailing render, and Flush always issues a
// final render with the complete message.
//
// A Throttle does not run its own goroutine. The owner selects on C and
// calls Fire when it delivers, so every render happens on the owner's
// goroutine. It is not safe for concurrent use.
type Throttle struct {
	window   time.Duration
	clock    clock.Clock
	limiter  *rate.Limiter
	renderer Renderer

	timer   clock.Timer
	pending string
	renders int
}

// NewThrottle returns a Throttle that renders to r at most once per window.
// A non-positive window uses DefaultRenderWindow.
func NewThrottle(window time.Duration, clk clock.Clock, r Renderer) *Throttle {
	if window <= 0 {
		window = DefaultRenderWindow
	}
	if clk == nil {
		clk = clock.New()
	}
	if r == nil {
		r = nopRenderer{}
	}

	return &Throttle{
		window:   window,
		clock:    clk,
		limiter:  rate.NewLimiter(rate.Every(window), 1),
		renderer: r,
	}
}

// Notify reports that the message changed. It renders immediately when a
// full window has passed since the last render. Otherwise it replaces any
// pending render with one for msg, due when the window ends.
func (t *Throttle) Notify(msg string) {
	now := t.clock.Now()
	if t.limiter.AllowN(now, 1) {
		t.stop()
		t.emit(msg)
		return
	}

	t.pending = msg
	t.stop()

	wait := time.Duration((1 - t.limiter.TokensAt(now)) * float64(t.window))
	t.timer = t.clock.NewTimer(wait)
}

// C returns the channel of the pending render's timer, or nil when nothing
// is pending. Receiving from a nil channel blocks forever, so C can be used
// in a select unconditionally.
func (t *Throttle) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.C()
}

// Fire performs the pending render. Call it after receiving from C.
func (t *Throttle) Fire() {
	if t.timer == nil {
		return
	}
	t.timer = nil
	t.limiter.ReserveN(t.clock.Now(), 1)
	t.emit(t.pending)
}

// Flush cancels any pending render and renders msg synchronously.
func (t *Throttle) Flush(msg string) {
	t.stop()
	t.emit(msg)
}

// Stop cancels any pending render without rendering.
func (t *Throttle) Stop() {
	t.stop()
}

// Pending reports whether a deferred render is scheduled.
func (t *Throttle) Pending() bool {
	return t.timer != nil
}

// Renders returns the number of renders issued.
func (t *Throttle) Renders() int {
	return t.renders
}

func (t *Throttle) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttle) emit(msg string) {
	t.pending = ""
	t.renders++
	t.renderer.Render(msg)
}
