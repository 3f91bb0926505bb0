package entity

import (
	"time"

	"github.com/google/uuid"
)

// NoteVersion is an immutable snapshot of a note at commit time.
// Versions are append-only: per note, version numbers are unique and
// contiguous starting from 1.
type NoteVersion struct {
	Id                uuid.UUID
	NoteId            uuid.UUID
	VersionNumber     int
	Title             string
	Content           string
	CreatedBy         string
	ChangeDescription string
	CreatedAt         time.Time
}
