package eventstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNilTurnEvent is returned for a nil event.
	ErrNilTurnEvent = errors.New("nil turn event")

	// ErrPublisherClosed is returned by PublishTurn after Close.
	ErrPublisherClosed = errors.New("publisher closed")
)

// Publisher delivers turn events to an event stream backend. The server
// publishes once per reply, after the stream to the client has ended.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnEvent) error
	Close() error
}

// Validate checks what every backend relies on: a conversation id to key
// the event by and a known outcome.
func Validate(event *TurnEvent) error {
	if event == nil {
		return ErrNilTurnEvent
	}
	if event.Turn.ConversationID == "" {
		return errors.New("turn event has no conversation id")
	}

	switch event.Turn.Outcome {
	case OutcomeCompleted, OutcomeCancelled, OutcomeFailed:
		return nil
	default:
		return fmt.Errorf("turn event has unknown outcome %q", event.Turn.Outcome)
	}
}
