package specification

import (
	"time"

	"gorm.io/gorm"
)

// AuthoredBy filters notes by the owning username
type AuthoredBy struct {
	Username string
}

func (s AuthoredBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("author = ?", s.Username)
}

// Locked matches notes that still carry persisted lock fields,
// regardless of whether the lock has expired.
type Locked struct{}

func (s Locked) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("locked_by IS NOT NULL")
}

// LockExpiredBefore matches notes whose persisted lock expired before
// the given instant. Combined with Locked it selects sweep candidates.
type LockExpiredBefore struct {
	Time time.Time
}

func (s LockExpiredBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("lock_expires_at < ?", s.Time)
}
