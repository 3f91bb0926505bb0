package permission

import "collab-notes-be/internal/entity"

// Evaluator decides read/write access from a note's sharing configuration.
// It is a pure function over its inputs: no storage access, no side effects.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// CanRead grants the author unconditionally. For shared notes, anyone in
// either the readers or the writers set may read.
func (e *Evaluator) CanRead(note *entity.Note, username string) bool {
	if note.IsAuthor(username) {
		return true
	}
	if note.PermissionKind == entity.PermissionPrivate {
		return false
	}
	return contains(note.Readers, username) || contains(note.Writers, username)
}

// CanWrite grants the author unconditionally. Other identities can write
// only on SHARED_WRITE notes and only when listed in the writers set; the
// readers set never implies write access.
func (e *Evaluator) CanWrite(note *entity.Note, username string) bool {
	if note.IsAuthor(username) {
		return true
	}
	if note.PermissionKind != entity.PermissionSharedWrite {
		return false
	}
	return contains(note.Writers, username)
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
