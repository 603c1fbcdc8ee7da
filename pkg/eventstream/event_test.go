package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamline/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals TurnEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.TurnEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTurnCompleted,
			EventID:       "evt_123",
			EmittedAt:     now,
			Source:        eventstream.EventSource{Responder: "ollama", Model: "llama3.2"},
			Turn: eventstream.TurnMeta{
				ConversationID: "conv-1",
				Message:        "hello",
				Reply:          "hi",
				Outcome:        eventstream.OutcomeCompleted,
				Tokens:         1,
				StartedAt:      now.Add(-2 * time.Second),
				CompletedAt:    now,
				DurationMs:     2000,
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(payload, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("schema_version"))
		Expect(decoded).To(HaveKeyWithValue("event_type", "streamline.turn.completed"))
		Expect(decoded).To(HaveKeyWithValue("event_id", "evt_123"))
		Expect(decoded).To(HaveKey("source"))
		Expect(decoded).To(HaveKey("turn"))

		turn := decoded["turn"].(map[string]any)
		Expect(turn).To(HaveKeyWithValue("conversation_id", "conv-1"))
		Expect(turn).To(HaveKeyWithValue("outcome", "completed"))
		Expect(turn).NotTo(HaveKey("error"))
	})

	It("stamps NewTurnEvent with an id and derived duration", func() {
		start := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewTurnEvent(
			eventstream.EventSource{Responder: "echo"},
			eventstream.TurnMeta{
				ConversationID: "conv-1",
				Outcome:        eventstream.OutcomeFailed,
				StartedAt:      start,
				CompletedAt:    start.Add(1500 * time.Millisecond),
			},
		)

		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeTurnCompleted))
		Expect(event.Turn.DurationMs).To(Equal(int64(1500)))
		Expect(event.EmittedAt).NotTo(BeZero())
	})
})

var _ = Describe("Validate", func() {
	valid := func() *eventstream.TurnEvent {
		return eventstream.NewTurnEvent(
			eventstream.EventSource{Responder: "echo"},
			eventstream.TurnMeta{ConversationID: "conv-1", Outcome: eventstream.OutcomeCancelled},
		)
	}

	It("accepts every known outcome", func() {
		for _, outcome := range []string{eventstream.OutcomeCompleted, eventstream.OutcomeCancelled, eventstream.OutcomeFailed} {
			event := valid()
			event.Turn.Outcome = outcome
			Expect(eventstream.Validate(event)).To(Succeed(), outcome)
		}
	})

	It("rejects a nil event", func() {
		Expect(eventstream.Validate(nil)).To(MatchError(eventstream.ErrNilTurnEvent))
	})

	It("rejects an event without a conversation id", func() {
		event := valid()
		event.Turn.ConversationID = ""
		Expect(eventstream.Validate(event)).To(MatchError(ContainSubstring("conversation id")))
	})

	It("rejects an unknown outcome", func() {
		event := valid()
		event.Turn.Outcome = ""
		Expect(eventstream.Validate(event)).To(HaveOccurred())
	})
})
