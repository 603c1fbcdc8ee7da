// Package cliui holds the terminal helpers shared by streamline commands:
// progress steps, status marks, notices below streamed output and markdown
// rendering for finished messages.
package cliui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// DefaultWrap is the markdown wrap width when the output is not a terminal.
const DefaultWrap = 80

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const spinnerInterval = 80 * time.Millisecond

// Step runs fn and reports it on one line as "✓ msg (12ms)" or
// "✗ msg (3.2s)". On a terminal a spinner animates the line while fn runs;
// elsewhere only the final line is written, so piped output and log files
// carry no carriage returns.
func Step(w io.Writer, msg string, fn func() error) error {
	var stop func()
	if IsTerminal(w) {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if stop != nil {
		stop()
		fmt.Fprint(w, "\r")
	}
	fmt.Fprintf(w, "  %s %s %s\n", Mark(err), msg, StepStyle.Render("("+FormatDuration(elapsed)+")"))
	return err
}

// spin animates msg until the returned func is called. The func returns
// once the last frame is written.
func spin(w io.Writer, msg string) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Notice prints a one-line notice below streamed output, for example when a
// reply fails or is interrupted. The streamed content above it is left as is.
func Notice(w io.Writer, err error, msg string) {
	if err == nil {
		fmt.Fprintf(w, "\n  %s %s\n", WarnStyle.Render("!"), DimStyle.Render(msg))
		return
	}
	fmt.Fprintf(w, "\n  %s %s %s\n", FailMark, msg, ErrorStyle.Render(err.Error()))
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or DefaultWrap when w is not a
// terminal.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultWrap
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWrap
	}
	return width
}

// Height returns the terminal height of w in rows, or 0 when w is not a
// terminal.
func Height(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	_, height, err := term.GetSize(int(f.Fd()))
	if err != nil || height <= 0 {
		return 0
	}
	return height
}

// RenderMarkdown renders a finished message for display, wrapped at width.
// On failure the content is returned unchanged along with the error.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWrap
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
