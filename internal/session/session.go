// Package session keeps per-user conversation state between turns.
package session

import (
	"context"
	"time"

	"voxlit/internal/models"
)

// State is one user's conversation. MessageCount counts every message ever
// appended, including those trimmed out of History.
type State struct {
	UserID       string               `json:"user_id"`
	History      []models.Message     `json:"history"`
	Settings     models.VoiceSettings `json:"settings"`
	Summary      string               `json:"summary,omitempty"`
	MessageCount int                  `json:"message_count"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// New returns the state for a user seen for the first time.
func New(userID string) State {
	return State{
		UserID:   userID,
		History:  []models.Message{},
		Settings: models.DefaultVoiceSettings(),
	}
}

// Store loads and saves session state. Concurrent writers for the same id
// are last-write-wins.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Put(ctx context.Context, id string, st State) error
}

func clone(st State) State {
	st.History = append([]models.Message(nil), st.History...)
	return st
}
