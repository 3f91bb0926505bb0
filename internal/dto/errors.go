package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotFoundError means the referenced record does not exist.
// Surfaced directly to the caller; never retried.
type NotFoundError struct {
	Resource string
	Id       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Id)
}

func NewNoteNotFound(id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: "note", Id: id.String()}
}

// ForbiddenError means the identity lacks the required permission, or does
// not hold the lock it is trying to renew or release.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// VersionConflictError is a decision, not a failure: the client's base
// version has been superseded by a later commit with different content.
// It carries the latest committed state so the caller can present both
// versions for manual reconciliation.
type VersionConflictError struct {
	NoteId        uuid.UUID
	BaseVersion   int
	LatestVersion int
	LatestTitle   string
	LatestContent string
	LatestBy      string
	LatestAt      time.Time
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("note %s: version conflict (base %d, latest %d by %s)",
		e.NoteId, e.BaseVersion, e.LatestVersion, e.LatestBy)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

func IsVersionConflict(err error) bool {
	var target *VersionConflictError
	return errors.As(err, &target)
}
