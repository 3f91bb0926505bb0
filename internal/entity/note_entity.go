package entity

import (
	"time"

	"github.com/google/uuid"
)

type PermissionKind string

const (
	PermissionPrivate     PermissionKind = "PRIVATE"
	PermissionSharedRead  PermissionKind = "SHARED_READ"
	PermissionSharedWrite PermissionKind = "SHARED_WRITE"
)

type Note struct {
	Id             uuid.UUID
	Title          string
	Content        string
	Author         string // username of the owning account, immutable after creation
	UserId         uuid.UUID
	PermissionKind PermissionKind
	Readers        []string
	Writers        []string
	Tags           []string
	Folders        []string

	// Lock fields. Populated only while an edit session is active.
	LockedBy       *string
	LockAcquiredAt *time.Time
	LockExpiresAt  *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (n *Note) IsAuthor(username string) bool {
	return n.Author == username
}

// IsLocked reports whether an unexpired lock exists. Expiry is evaluated
// lazily: an expired lock counts as unlocked even before the sweeper or a
// write path has cleared it.
func (n *Note) IsLocked() bool {
	return n.LockedBy != nil && n.LockExpiresAt != nil && time.Now().Before(*n.LockExpiresAt)
}

func (n *Note) IsLockedBy(username string) bool {
	return n.IsLocked() && *n.LockedBy == username
}

// HasExpiredLock reports whether stale lock fields are still persisted.
func (n *Note) HasExpiredLock() bool {
	return n.LockedBy != nil && n.LockExpiresAt != nil && time.Now().After(*n.LockExpiresAt)
}

// CanBeEditedBy ignores permissions; it only answers the lock question.
func (n *Note) CanBeEditedBy(username string) bool {
	if !n.IsLocked() {
		return true
	}
	return *n.LockedBy == username
}

func (n *Note) LockFor(username string, ttl time.Duration) {
	now := time.Now()
	expires := now.Add(ttl)
	n.LockedBy = &username
	n.LockAcquiredAt = &now
	n.LockExpiresAt = &expires
}

func (n *Note) Unlock() {
	n.LockedBy = nil
	n.LockAcquiredAt = nil
	n.LockExpiresAt = nil
}
