// Package render provides terminal sinks for streamed chat messages.
//
// Every render carries the complete message so far. Delta prints only what
// is new since the previous render; Markdown re-renders the whole message
// and redraws it in place.
package render

import (
	"io"
	"strings"
	"sync"
)

// Delta writes the new suffix of each render to an io.Writer.
type Delta struct {
	mu      sync.Mutex
	w       io.Writer
	written string
	err     error
}

// NewDelta returns a Delta writing to w.
func NewDelta(w io.Writer) *Delta {
	return &Delta{w: w}
}

// Render writes the part of msg not yet written. A message that does not
// extend the previous one is written in full on a new line.
func (d *Delta) Render(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := msg
	if rest, ok := strings.CutPrefix(msg, d.written); ok {
		out = rest
	} else if d.written != "" {
		out = "\n" + msg
	}
	d.written = msg

	if out == "" || d.err != nil {
		return
	}
	_, d.err = io.WriteString(d.w, out)
}

// Written returns everything rendered so far.
func (d *Delta) Written() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written
}

// Err returns the first write error.
func (d *Delta) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
