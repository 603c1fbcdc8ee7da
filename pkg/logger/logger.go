// Package logger builds the *slog.Logger every streamline component takes.
//
// Commands build one with New and WithPretty for the terminal. The serve
// command also writes JSON to its log file through Multi. Library code that
// is given no logger falls back to Nop.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level     slog.Level
	pretty    bool
	json      bool
	source    bool
	component string
	w         io.Writer
}

// New returns a logger configured by opts. Without options it writes Info
// and above as slog text to os.Stderr, keeping stdout free for streamed
// replies and log lines.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level: slog.LevelInfo,
		w:     os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}

	var h slog.Handler
	switch {
	case c.pretty:
		h = charmlog.NewWithOptions(c.w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			ReportCaller:    c.source,
		})
	case c.json:
		h = slog.NewJSONHandler(c.w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	default:
		h = slog.NewTextHandler(c.w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}

	l := slog.New(h)
	if c.component != "" {
		l = l.With("component", c.component)
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
