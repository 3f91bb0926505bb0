package dto

import (
	"time"

	"github.com/google/uuid"
)

// NoteEventMessage is the in-process message published after note mutations.
// The consumer fans it out to the event bus and the notification hub.
type NoteEventMessage struct {
	Type       string    `json:"type"`
	NoteId     uuid.UUID `json:"note_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}
