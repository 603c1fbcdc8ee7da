// Package tail follows a long-lived log stream. A Subscriber reconnects
// after every failure until it is closed, and a Log keeps bounded
// scrollback that only follows new lines while the reader is at the bottom.
package tail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/streamline/pkg/clock"
	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/sse"
	"github.com/papercomputeco/streamline/pkg/transport"
)

// DefaultRetryDelay is the fixed wait between a failure and the next
// connection attempt.
const DefaultRetryDelay = 3 * time.Second

// ErrClosed is returned by Run on a closed Subscriber.
var ErrClosed = errors.New("subscriber closed")

// ErrRunning is returned by Run while another Run is in progress.
var ErrRunning = errors.New("subscriber already running")

// State is the state of a Subscriber.
type State int

const (
	Connecting State = iota
	Connected
	Retrying
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Retrying:
		return "retrying"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// LineSink receives every frame payload of the stream, blank ones included.
type LineSink interface {
	AppendLine(text string)
}

// LineSinkFunc adapts a function to a LineSink.
type LineSinkFunc func(text string)

func (f LineSinkFunc) AppendLine(text string) {
	f(text)
}

// Config configures a Subscriber.
type Config struct {
	Transport transport.Transport
	Request   *transport.Request
	Sink      LineSink

	// RetryDelay is the wait before reconnecting. Defaults to
	// DefaultRetryDelay.
	RetryDelay time.Duration

	// Clock drives the retry timer. Defaults to the system clock.
	Clock clock.Clock

	Logger *slog.Logger

	// OnStateChange, when set, is called after every state transition.
	OnStateChange func(State)
}

// Subscriber holds one logical log subscription open. Any transport error,
// including the server ending the stream, moves it to Retrying; after
// RetryDelay it reconnects, with no cap on attempts. Only Close or
// cancelling the Run context stops it.
type Subscriber struct {
	transport     transport.Transport
	request       *transport.Request
	sink          LineSink
	delay         time.Duration
	clock         clock.Clock
	logger        *slog.Logger
	onStateChange func(State)

	mu       sync.Mutex
	state    State
	running  bool
	failures int
	lines    int

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSubscriber returns a Subscriber in the Connecting state.
func NewSubscriber(cfg Config) *Subscriber {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Sink == nil {
		cfg.Sink = LineSinkFunc(func(string) {})
	}

	return &Subscriber{
		transport:     cfg.Transport,
		request:       cfg.Request,
		sink:          cfg.Sink,
		delay:         cfg.RetryDelay,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
		onStateChange: cfg.OnStateChange,
		closed:        make(chan struct{}),
	}
}

// Run subscribes and keeps resubscribing until Close is called or ctx is
// done. It returns nil after Close and ctx.Err() after cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return ErrClosed
	default:
	}
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	s.running = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.closed:
			cancel()
		case <-runCtx.Done():
		}
	}()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.setState(Closed)
	}()

	for {
		s.setState(Connecting)
		err := s.subscribe(runCtx)
		if runCtx.Err() != nil {
			return s.exitErr(ctx)
		}

		s.mu.Lock()
		s.failures++
		attempt := s.failures
		s.mu.Unlock()

		s.setState(Retrying)
		s.logger.Warn("log stream lost, reconnecting",
			"url", s.request.URL,
			"error", err,
			"attempt", attempt,
			"delay", s.delay,
		)

		timer := s.clock.NewTimer(s.delay)
		select {
		case <-runCtx.Done():
			timer.Stop()
			return s.exitErr(ctx)
		case <-timer.C():
		}
	}
}

// Close stops the subscription and any pending retry. It is safe to call
// more than once and from any goroutine.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		close(s.closed)
		running := s.running
		s.mu.Unlock()

		if !running {
			s.setState(Closed)
		}
	})
}

// State returns the current state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Failures returns the number of connections lost so far.
func (s *Subscriber) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Lines returns the number of lines delivered to the sink.
func (s *Subscriber) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	body, err := s.transport.Open(ctx, s.request)
	if err != nil {
		return transport.AsError("open", s.request.URL, err)
	}
	defer body.Close()

	// Unblock a read that does not observe ctx itself.
	stop := context.AfterFunc(ctx, func() {
		_ = body.Close()
	})
	defer stop()

	s.setState(Connected)
	s.logger.Debug("log stream connected", "url", s.request.URL)

	r := sse.NewReader(body)
	for {
		ev, err := r.Next()
		if err != nil {
			return transport.AsError("read", s.request.URL, err)
		}
		if ev == nil {
			return transport.AsError("read", s.request.URL, io.ErrUnexpectedEOF)
		}

		s.mu.Lock()
		s.lines++
		s.mu.Unlock()

		s.sink.AppendLine(ev.Data)
	}
}

func (s *Subscriber) setState(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	s.logger.Debug("subscriber state", "state", state.String())
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}

func (s *Subscriber) exitErr(ctx context.Context) error {
	select {
	case <-s.closed:
		return nil
	default:
		return ctx.Err()
	}
}
