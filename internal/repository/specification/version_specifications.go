package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByNoteID filters versions by their parent note
type ByNoteID struct {
	NoteID uuid.UUID
}

func (s ByNoteID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("note_id = ?", s.NoteID)
}

// ByVersionNumber filters by a specific version number
type ByVersionNumber struct {
	VersionNumber int
}

func (s ByVersionNumber) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("version_number = ?", s.VersionNumber)
}
