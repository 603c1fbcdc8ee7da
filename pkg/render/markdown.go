package render

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

// DefaultWordWrap is the markdown wrap width.
const DefaultWordWrap = 80

// Markdown renders each message as markdown with glamour and redraws it over
// the previous render, so the terminal always shows the latest content.
type Markdown struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *glamour.TermRenderer
	height   int
	lines    int
	err      error
}

// MarkdownOption configures a Markdown sink.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	wrap   int
	style  string
	height int
}

// WithWordWrap sets the wrap width.
func WithWordWrap(width int) MarkdownOption {
	return func(c *markdownConfig) {
		c.wrap = width
	}
}

// WithStyle selects a glamour standard style such as "dark" or "notty".
// The default picks one from the terminal background.
func WithStyle(style string) MarkdownOption {
	return func(c *markdownConfig) {
		c.style = style
	}
}

// WithHeight sets the terminal height in rows. The cursor cannot move above
// the top of the screen, so a redraw then reaches back at most height-1 rows;
// rows already scrolled off stay as written and the new render resumes
// below them. Zero means unlimited.
func WithHeight(rows int) MarkdownOption {
	return func(c *markdownConfig) {
		c.height = rows
	}
}

// NewMarkdown returns a Markdown sink writing to w.
func NewMarkdown(w io.Writer, opts ...MarkdownOption) (*Markdown, error) {
	c := &markdownConfig{wrap: DefaultWordWrap}
	for _, opt := range opts {
		opt(c)
	}

	styleOpt := glamour.WithAutoStyle()
	if c.style != "" {
		styleOpt = glamour.WithStandardStyle(c.style)
	}

	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(c.wrap),
	)
	if err != nil {
		return nil, err
	}

	return &Markdown{w: w, renderer: r, height: c.height}, nil
}

// Render redraws msg. If glamour fails the raw message is shown instead.
func (m *Markdown) Render(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return
	}

	out, err := m.renderer.Render(msg)
	if err != nil {
		out = msg + "\n"
	}

	var sb strings.Builder
	kept := 0
	if m.lines > 0 {
		up := m.lines
		if m.height > 0 {
			up = min(up, max(m.height-1, 0))
		}
		kept = m.lines - up

		sb.WriteString("\r")
		if up > 0 {
			sb.WriteString(ansi.CursorUp(up))
		}
		sb.WriteString(ansi.EraseScreenBelow)
	}
	out = dropLines(out, kept)
	sb.WriteString(out)
	m.lines = kept + strings.Count(out, "\n")

	_, m.err = io.WriteString(m.w, sb.String())
}

// Err returns the first write error.
func (m *Markdown) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// dropLines removes the first n lines of s.
func dropLines(s string, n int) string {
	for ; n > 0; n-- {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			return ""
		}
		s = s[i+1:]
	}
	return s
}
