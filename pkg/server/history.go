package server

import (
	"slices"
	"sync"
)

// DefaultHistoryWindow is how many recent messages a responder sees.
const DefaultHistoryWindow = 6

// Message is one chat message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a snapshot of a conversation's messages.
type Conversation struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

// History keeps conversations in memory, keyed by the id the chat client
// sends with every message. Nothing is persisted.
type History struct {
	mu            sync.Mutex
	window        int
	conversations map[string][]Message
}

// NewHistory returns an empty History whose Window returns at most window
// messages. A window <= 0 uses DefaultHistoryWindow.
func NewHistory(window int) *History {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &History{
		window:        window,
		conversations: make(map[string][]Message),
	}
}

// Append adds msgs to conversation id, creating it if needed.
func (h *History) Append(id string, msgs ...Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conversations[id] = append(h.conversations[id], msgs...)
}

// Window returns the most recent messages of conversation id.
func (h *History) Window(id string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.conversations[id]
	if len(msgs) > h.window {
		msgs = msgs[len(msgs)-h.window:]
	}
	return slices.Clone(msgs)
}

// Get returns conversation id, or false if it doesn't exist.
func (h *History) Get(id string) (Conversation, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs, ok := h.conversations[id]
	if !ok {
		return Conversation{}, false
	}
	return Conversation{ID: id, Messages: slices.Clone(msgs)}, true
}

// IDs returns the conversation ids in sorted order.
func (h *History) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.conversations))
	for id := range h.conversations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Delete removes conversation id and reports whether it existed.
func (h *History) Delete(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, ok := h.conversations[id]
	delete(h.conversations, id)
	return ok
}
