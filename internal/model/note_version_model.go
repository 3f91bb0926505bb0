package model

import (
	"time"

	"github.com/google/uuid"
)

type NoteVersion struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NoteId            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_note_versions_note_id_version,priority:1"`
	VersionNumber     int       `gorm:"not null;uniqueIndex:idx_note_versions_note_id_version,priority:2"`
	Title             string    `gorm:"type:varchar(100);not null"`
	Content           string    `gorm:"type:varchar(280);not null"`
	CreatedBy         string    `gorm:"type:varchar(100);not null"`
	ChangeDescription string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (NoteVersion) TableName() string {
	return "note_versions"
}
