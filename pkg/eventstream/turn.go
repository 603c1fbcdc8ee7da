package eventstream

import (
	"time"

	"github.com/google/uuid"
)

// NewTurnEvent returns a TurnEvent for turn stamped with a fresh id and
// the current time.
func NewTurnEvent(source EventSource, turn TurnMeta) *TurnEvent {
	if turn.DurationMs == 0 && !turn.StartedAt.IsZero() && !turn.CompletedAt.IsZero() {
		turn.DurationMs = turn.CompletedAt.Sub(turn.StartedAt).Milliseconds()
	}

	return &TurnEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
	}
}
