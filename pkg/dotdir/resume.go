package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	resumeFile = "resume.json"
)

// ResumeState is the last chat conversation, persisted so a later chat can
// continue it under the same id.
type ResumeState struct {
	// ConversationID is the id sent with every message of the conversation.
	ConversationID string `json:"conversation_id"`

	// Target is the chat endpoint the conversation was held against.
	Target string `json:"target"`

	UpdatedAt time.Time `json:"updated_at"`
}

// LoadResumeState loads the resume state from a target .streamline/resume.json.
// Returns nil, nil if no directory or state exists.
func (m *Manager) LoadResumeState(overrideDir string) (*ResumeState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, resumeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume state: %w", err)
	}

	state := &ResumeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing resume state: %w", err)
	}

	return state, nil
}

// SaveResumeState persists state to a target .streamline/resume.json.
func (m *Manager) SaveResumeState(state *ResumeState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil resume state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return errors.New("no .streamline directory: run \"streamline init\" first")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling resume state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, resumeFile), data, 0o600); err != nil {
		return fmt.Errorf("writing resume state: %w", err)
	}

	return nil
}

// ClearResumeState removes the resume state file. Returns nil if the file
// doesn't exist.
func (m *Manager) ClearResumeState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	if err := os.Remove(filepath.Join(dir, resumeFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing resume state: %w", err)
	}

	return nil
}
