package tail

// BottomTolerance bounds how far from the end a view may be scrolled and
// still count as at the bottom. Distances strictly below it qualify.
const BottomTolerance = 2

// Viewport is the scrollable view a Log renders into.
type Viewport interface {
	// AtBottom reports whether the view is at the end of its content,
	// within BottomTolerance.
	AtBottom() bool

	// Refresh replaces the view's content with the buffer.
	Refresh(b *Buffer)

	// GotoBottom scrolls to the end of the content.
	GotoBottom()
}

// WithinBottom reports whether a view scrolled to offset, showing height
// rows of total, is less than tolerance rows from the end. Content shorter
// than the view is always at the bottom.
func WithinBottom(total, height, offset, tolerance int) bool {
	bottom := max(total-height, 0)
	d := bottom - offset
	if d < 0 {
		d = -d
	}
	return d < tolerance
}

// Log is a LineSink that keeps bounded scrollback and follows new lines
// only while the viewport is already at the bottom. A reader scrolled up
// into history stays where they are.
//
// Log is not safe for concurrent use; deliver lines on the goroutine that
// owns the viewport.
type Log struct {
	buf  *Buffer
	view Viewport
}

// NewLog returns a Log retaining capacity lines and rendering into view.
func NewLog(capacity int, view Viewport) *Log {
	return &Log{
		buf:  NewBuffer(capacity),
		view: view,
	}
}

// AppendLine adds text to the scrollback.
func (l *Log) AppendLine(text string) {
	follow := l.view == nil || l.view.AtBottom()

	l.buf.Push(text)

	if l.view == nil {
		return
	}
	l.view.Refresh(l.buf)
	if follow {
		l.view.GotoBottom()
	}
}

// Buffer returns the scrollback.
func (l *Log) Buffer() *Buffer {
	return l.buf
}
