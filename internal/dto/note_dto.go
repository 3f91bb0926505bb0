package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=100"`
	Content string   `json:"content" validate:"required,max=280"`
	Tags    []string `json:"tags" validate:"omitempty,dive,max=50"`
	Folders []string `json:"folders" validate:"omitempty,dive,max=100"`
}

// UpdateNoteRequest drives the full save path: verify lock ownership,
// detect version conflicts against BaseVersion, persist, snapshot, unlock.
type UpdateNoteRequest struct {
	Id                uuid.UUID `json:"id" validate:"required"`
	Title             string    `json:"title" validate:"required,max=100"`
	Content           string    `json:"content" validate:"required,max=280"`
	Tags              []string  `json:"tags" validate:"omitempty,dive,max=50"`
	Folders           []string  `json:"folders" validate:"omitempty,dive,max=100"`
	BaseVersion       int       `json:"base_version" validate:"min=0"`
	ChangeDescription string    `json:"change_description" validate:"max=500"`
}

type UpdatePermissionsRequest struct {
	PermissionKind string   `json:"permission_kind" validate:"required,oneof=PRIVATE SHARED_READ SHARED_WRITE"`
	Readers        []string `json:"readers" validate:"omitempty,dive,max=100"`
	Writers        []string `json:"writers" validate:"omitempty,dive,max=100"`
}

type NoteResponse struct {
	Id             uuid.UUID           `json:"id"`
	Title          string              `json:"title"`
	Content        string              `json:"content"`
	Author         string              `json:"author"`
	PermissionKind string              `json:"permission_kind"`
	Readers        []string            `json:"readers"`
	Writers        []string            `json:"writers"`
	Tags           []string            `json:"tags"`
	Folders        []string            `json:"folders"`
	CurrentVersion int                 `json:"current_version"`
	Lock           *LockStatusResponse `json:"lock,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      *time.Time          `json:"updated_at,omitempty"`
}
