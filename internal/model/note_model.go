package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Note struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title          string    `gorm:"type:varchar(100);not null"`
	Content        string    `gorm:"type:varchar(280);not null"`
	Author         string    `gorm:"type:varchar(100);not null;index"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	PermissionKind string    `gorm:"type:varchar(20);not null;default:'PRIVATE'"`
	Readers        datatypes.JSON
	Writers        datatypes.JSON
	Tags           datatypes.JSON
	Folders        datatypes.JSON

	// Lock columns. All three are null while no edit session is active.
	LockedBy       *string    `gorm:"type:varchar(100)"`
	LockAcquiredAt *time.Time
	LockExpiresAt  *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Note) TableName() string {
	return "notes"
}
