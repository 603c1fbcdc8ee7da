// Package eventstream publishes chat turn events from the development server
// to an event stream backend.
package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted once a streamed reply has ended,
	// whatever the outcome.
	EventTypeTurnCompleted = "streamline.turn.completed"
)

// Turn outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// TurnEvent is a transport-neutral event payload for one chat turn.
type TurnEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies where the turn was produced.
type EventSource struct {
	Responder string `json:"responder"`
	Model     string `json:"model,omitempty"`
}

// TurnMeta captures the exchange and its lifecycle.
type TurnMeta struct {
	ConversationID string    `json:"conversation_id"`
	Message        string    `json:"message"`
	Reply          string    `json:"reply"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	Tokens         int       `json:"tokens"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	DurationMs     int64     `json:"duration_ms"`
}
