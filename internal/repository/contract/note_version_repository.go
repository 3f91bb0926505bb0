package contract

import (
	"context"

	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteVersionRepository interface {
	Create(ctx context.Context, version *entity.NoteVersion) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NoteVersion, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NoteVersion, error)
	// FindLatestByNoteId returns the highest-numbered version, or nil if the
	// note has no committed versions yet.
	FindLatestByNoteId(ctx context.Context, noteId uuid.UUID) (*entity.NoteVersion, error)
	// MaxVersionNumber returns 0 if the note has no versions.
	MaxVersionNumber(ctx context.Context, noteId uuid.UUID) (int, error)
	DeleteAllByNoteId(ctx context.Context, noteId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
