package tail

import "strings"

// DefaultCapacity is the default number of retained scrollback lines.
const DefaultCapacity = 1000

// Buffer is a bounded FIFO of lines. Once full, each Push evicts the oldest
// line in O(1).
type Buffer struct {
	lines []string
	start int
	n     int
}

// NewBuffer returns an empty Buffer holding at most capacity lines.
// A non-positive capacity uses DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{lines: make([]string, capacity)}
}

// Push appends line and reports whether the oldest line was evicted.
func (b *Buffer) Push(line string) bool {
	if b.n < len(b.lines) {
		b.lines[(b.start+b.n)%len(b.lines)] = line
		b.n++
		return false
	}

	b.lines[b.start] = line
	b.start = (b.start + 1) % len(b.lines)
	return true
}

// Len returns the number of retained lines.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return len(b.lines)
}

// Lines returns the retained lines, oldest first.
func (b *Buffer) Lines() []string {
	out := make([]string, b.n)
	for i := range out {
		out[i] = b.lines[(b.start+i)%len(b.lines)]
	}
	return out
}

// String returns the retained lines joined by newlines.
func (b *Buffer) String() string {
	var sb strings.Builder
	for i := 0; i < b.n; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.lines[(b.start+i)%len(b.lines)])
	}
	return sb.String()
}
