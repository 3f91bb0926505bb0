package dto

import (
	"time"

	"github.com/google/uuid"
)

type NoteVersionResponse struct {
	NoteId            uuid.UUID `json:"note_id"`
	VersionNumber     int       `json:"version_number"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	CreatedBy         string    `json:"created_by"`
	ChangeDescription string    `json:"change_description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type VersionComparisonResponse struct {
	NoteId         uuid.UUID            `json:"note_id"`
	Base           *NoteVersionResponse `json:"base"`
	Target         *NoteVersionResponse `json:"target"`
	TitleChanged   bool                 `json:"title_changed"`
	ContentChanged bool                 `json:"content_changed"`
}

type RestoreVersionRequest struct {
	VersionNumber int `json:"version_number" validate:"required,min=1"`
}
