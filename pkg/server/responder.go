package server

import (
	"context"
	"io"
	"time"
	"unicode"

	"github.com/papercomputeco/streamline/pkg/clock"
)

// Stream yields the content tokens of one reply. Recv returns io.EOF once the
// reply is complete.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Responder produces streamed replies. history holds the recent messages of
// the conversation, oldest first, not including message.
type Responder interface {
	Name() string
	Respond(ctx context.Context, history []Message, message string) (Stream, error)
}

// Echo replies with the message itself, one word at a time.
type Echo struct {
	delay time.Duration
	clock clock.Clock
}

// NewEcho returns an Echo that waits delay between words. A nil clock uses
// the real clock.
func NewEcho(delay time.Duration, clk clock.Clock) *Echo {
	if clk == nil {
		clk = clock.New()
	}
	return &Echo{delay: delay, clock: clk}
}

func (e *Echo) Name() string {
	return "echo"
}

func (e *Echo) Respond(ctx context.Context, _ []Message, message string) (Stream, error) {
	return &echoStream{
		ctx:    ctx,
		tokens: Tokenize(message),
		delay:  e.delay,
		clock:  e.clock,
	}, nil
}

type echoStream struct {
	ctx    context.Context
	tokens []string
	next   int
	delay  time.Duration
	clock  clock.Clock
}

func (s *echoStream) Recv() (string, error) {
	if s.next >= len(s.tokens) {
		return "", io.EOF
	}

	if s.next > 0 && s.delay > 0 {
		t := s.clock.NewTimer(s.delay)
		select {
		case <-s.ctx.Done():
			t.Stop()
			return "", s.ctx.Err()
		case <-t.C():
		}
	} else if err := s.ctx.Err(); err != nil {
		return "", err
	}

	tok := s.tokens[s.next]
	s.next++
	return tok, nil
}

func (s *echoStream) Close() error {
	return nil
}

// Tokenize splits text into word tokens, each carrying the whitespace that
// precedes it, so concatenating the tokens gives back text.
func Tokenize(text string) []string {
	var (
		tokens  []string
		start   int
		inSpace = true
	)
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && !inSpace && i > start {
			tokens = append(tokens, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}
