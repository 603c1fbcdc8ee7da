package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/streamline/pkg/clock"
	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/transport"
)

// ConversationConfig configures a Conversation.
type ConversationConfig struct {
	// Target is the chat endpoint, for example http://localhost:8080/api/chat.
	Target string

	// ID resumes an existing conversation. A fresh id is generated when empty.
	ID string

	Transport    transport.Transport
	RenderWindow time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Conversation is a sequence of chat sessions sharing one conversation id.
// At most one session is active at a time: Send cancels the in-flight
// session and waits for it to end before opening the next.
type Conversation struct {
	target       *url.URL
	transport    transport.Transport
	renderWindow time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	mu     sync.Mutex
	id     string
	active *Session
}

// NewConversation returns a Conversation for cfg.ID, or a fresh id.
func NewConversation(cfg ConversationConfig) (*Conversation, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("parsing chat target: %w", err)
	}
	if cfg.Transport == nil {
		cfg.Transport = transport.NewHTTP()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	return &Conversation{
		target:       target,
		transport:    cfg.Transport,
		renderWindow: cfg.RenderWindow,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		id:           cfg.ID,
	}, nil
}

// ID returns the conversation id sent with every message.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Send streams the reply to message into r and blocks until the session is
// terminal. Any session still in flight is cancelled first.
func (c *Conversation) Send(ctx context.Context, message string, r Renderer) (Result, error) {
	c.mu.Lock()
	prev := c.active
	if prev != nil {
		prev.Cancel()
	}

	s := NewSession(Config{
		Transport:    c.transport,
		Request:      transport.Get(c.requestURL(message)),
		Renderer:     r,
		RenderWindow: c.renderWindow,
		Clock:        c.clock,
		Logger:       c.logger.With("conversation", c.id),
	})
	c.active = s
	c.mu.Unlock()

	if prev != nil {
		<-prev.Done()
	}

	defer func() {
		c.mu.Lock()
		if c.active == s {
			c.active = nil
		}
		c.mu.Unlock()
	}()

	return s.Run(ctx)
}

// Active returns the in-flight session, or nil.
func (c *Conversation) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Cancel cancels the in-flight session, if any.
func (c *Conversation) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.Cancel()
	}
}

// Reset cancels the in-flight session and starts over with a new id.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.Cancel()
	}
	c.id = uuid.NewString()
}

// requestURL must be called with c.mu held.
func (c *Conversation) requestURL(message string) string {
	u := *c.target
	q := u.Query()
	q.Set("id", c.id)
	q.Set("message", message)
	u.RawQuery = q.Encode()
	return u.String()
}
