package chat

import "strings"

// Accumulator assembles frame payloads into one logical message.
//
// The first frame establishes the message with its payload. After that an
// empty payload is a paragraph break and appends exactly one newline; any
// other payload is appended verbatim. Fragments arrive pre-segmented, so no
// delimiter is ever inserted between them.
type Accumulator struct {
	msg    strings.Builder
	frames int
}

// Add applies one frame and returns the message so far.
func (a *Accumulator) Add(payload string) string {
	switch {
	case a.frames == 0:
		a.msg.WriteString(payload)
	case payload == "":
		a.msg.WriteByte('\n')
	default:
		a.msg.WriteString(payload)
	}
	a.frames++
	return a.msg.String()
}

// Started reports whether any frame has been added. Before the first frame
// there is no message at all, not an empty one.
func (a *Accumulator) Started() bool {
	return a.frames > 0
}

// Message returns the message so far.
func (a *Accumulator) Message() string {
	return a.msg.String()
}

// Frames returns the number of frames added.
func (a *Accumulator) Frames() int {
	return a.frames
}
