// Package nop provides the publisher the server uses when no event stream
// is configured.
package nop

import (
	"context"
	"sync"

	"github.com/papercomputeco/streamline/pkg/eventstream"
)

// Publisher validates and discards turn events. It counts what it accepted
// so a disabled event stream still shows up in debug output and tests.
type Publisher struct {
	mu        sync.Mutex
	published int
	closed    bool
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return eventstream.ErrPublisherClosed
	}
	p.published++
	return nil
}

// Published returns the number of events accepted.
func (p *Publisher) Published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
