package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/streamline/pkg/clock"
	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/sse"
	"github.com/papercomputeco/streamline/pkg/transport"
)

const readBufferSize = 32 * 1024

// ErrSessionStarted is returned when Run is called on a Session that has
// already run.
var ErrSessionStarted = errors.New("session already started")

// Config configures a Session.
type Config struct {
	// Transport opens the reply stream.
	Transport transport.Transport

	// Request is the chat request to issue.
	Request *transport.Request

	// Renderer receives the message as it grows and once more at the end.
	Renderer Renderer

	// RenderWindow is the minimum spacing between non-final renders.
	// Defaults to DefaultRenderWindow.
	RenderWindow time.Duration

	// Clock drives render throttling. Defaults to the system clock.
	Clock clock.Clock

	Logger *slog.Logger

	// ID identifies the session in logs. Defaults to a random UUID.
	ID string
}

// Result is the outcome of a Session.
type Result struct {
	ID      string
	State   State
	Message string
	Frames  int
	Renders int
}

// Session drives one cancellable chat request from open to a terminal
// state. Bytes flow through an sse.Parser into an Accumulator, and every
// change is offered to a Throttle that renders at a bounded rate. Once
// terminal, the message never changes again.
type Session struct {
	transport transport.Transport
	request   *transport.Request
	logger    *slog.Logger
	id        string

	parser   *sse.Parser
	acc      Accumulator
	throttle *Throttle

	mu              sync.Mutex
	state           State
	started         bool
	cancel          context.CancelFunc
	cancelRequested bool
	result          Result
	done            chan struct{}
}

// NewSession returns an Idle Session.
func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	return &Session{
		transport: cfg.Transport,
		request:   cfg.Request,
		logger:    cfg.Logger.With("session", cfg.ID),
		id:        cfg.ID,
		parser:    sse.NewParser(),
		throttle:  NewThrottle(cfg.RenderWindow, cfg.Clock, cfg.Renderer),
		state:     Idle,
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Cancel aborts the session. Cancelling an Idle session makes Run end
// Cancelled without opening a stream. Repeated calls and calls after the
// session ended are no-ops.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == Idle:
		s.cancelRequested = true
	case s.state.Terminal():
	default:
		s.cancel()
	}
}

type chunk struct {
	data []byte
	err  error
}

// Run issues the request and blocks until the session is terminal.
//
// A transport failure returns a *transport.Error and ends Failed; content
// received before a mid-stream failure is kept and rendered once more.
// Cancellation, whether by Cancel or by ctx, ends Cancelled and returns a
// nil error. Every path that received a frame ends with one final render,
// and the response body is closed on every path.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return Result{}, ErrSessionStarted
	}
	s.started = true
	defer close(s.done)

	if s.cancelRequested {
		s.mu.Unlock()
		return s.finish(Cancelled, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel
	s.state = Open
	s.mu.Unlock()

	s.logger.Debug("session open", "url", s.request.URL)

	body, err := s.transport.Open(ctx, s.request)
	if err != nil {
		if ctx.Err() != nil {
			return s.finish(Cancelled, nil)
		}
		return s.finish(Failed, transport.AsError("open", s.request.URL, err))
	}

	chunks := make(chan chunk)
	pumped := make(chan struct{})
	go s.pump(ctx, body, chunks, pumped)

	defer func() {
		if err := body.Close(); err != nil {
			s.logger.Debug("closing response body", "error", err)
		}
		<-pumped
	}()

	for {
		select {
		case <-ctx.Done():
			return s.finish(Cancelled, nil)

		case <-s.throttle.C():
			s.throttle.Fire()

		case c := <-chunks:
			if ctx.Err() != nil {
				return s.finish(Cancelled, nil)
			}

			if len(c.data) > 0 {
				s.consume(s.parser.Feed(c.data))
			}

			switch {
			case c.err == nil:
			case errors.Is(c.err, io.EOF):
				s.setState(Draining)
				s.consume(s.parser.Close())
				if ctx.Err() != nil {
					return s.finish(Cancelled, nil)
				}
				return s.finish(Completed, nil)
			case ctx.Err() != nil:
				return s.finish(Cancelled, nil)
			default:
				return s.finish(Failed, transport.AsError("read", s.request.URL, c.err))
			}
		}
	}
}

// pump reads the body on its own goroutine so the session loop can observe
// cancellation and the render timer while a read is outstanding.
func (s *Session) pump(ctx context.Context, body io.Reader, out chan<- chunk, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, readBufferSize)
	for {
		n, err := body.Read(buf)

		var c chunk
		if n > 0 {
			c.data = bytes.Clone(buf[:n])
		}
		c.err = err

		if c.data == nil && c.err == nil {
			continue
		}

		select {
		case out <- c:
		case <-ctx.Done():
			return
		}

		if err != nil {
			return
		}
	}
}

func (s *Session) consume(events []sse.Event) {
	for _, ev := range events {
		s.throttle.Notify(s.acc.Add(ev.Data))
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Session) finish(state State, err error) (Result, error) {
	if s.acc.Started() {
		s.throttle.Flush(s.acc.Message())
	} else {
		s.throttle.Stop()
	}

	result := Result{
		ID:      s.id,
		State:   state,
		Message: s.acc.Message(),
		Frames:  s.acc.Frames(),
		Renders: s.throttle.Renders(),
	}

	s.mu.Lock()
	s.state = state
	s.result = result
	s.mu.Unlock()

	attrs := []any{
		"state", state.String(),
		"frames", result.Frames,
		"renders", result.Renders,
		"lines", s.parser.Lines(),
	}
	if err != nil {
		s.logger.Debug("session ended", append(attrs, "error", err)...)
		return result, fmt.Errorf("chat session %s: %w", s.id, err)
	}
	s.logger.Debug("session ended", attrs...)
	return result, nil
}
