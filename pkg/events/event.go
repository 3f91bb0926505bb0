package events

import "time"

// Event types emitted by the note collaboration core.
const (
	TypeNoteLocked         = "NOTE_LOCKED"
	TypeNoteUnlocked       = "NOTE_UNLOCKED"
	TypeNoteVersionCreated = "NOTE_VERSION_CREATED"
	TypeNoteDeleted        = "NOTE_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_LOCKED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewNoteEvent builds an event about a single note. The note id is always
// present in the payload so subscribers can route without parsing subjects.
func NewNoteEvent(eventType string, noteId string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["note_id"] = noteId
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
