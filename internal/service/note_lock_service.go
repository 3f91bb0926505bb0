// FILE: internal/service/note_lock_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/pkg/logger"
	"collab-notes-be/internal/repository/memory"
	"collab-notes-be/internal/repository/specification"
	"collab-notes-be/internal/repository/unitofwork"
	"collab-notes-be/pkg/events"
	"collab-notes-be/pkg/keymutex"
	"collab-notes-be/pkg/permission"

	"github.com/google/uuid"
)

type INoteLockService interface {
	Acquire(ctx context.Context, noteId uuid.UUID, username string) (*dto.AcquireLockResponse, error)
	Release(ctx context.Context, noteId uuid.UUID, username string) (*dto.ReleaseLockResponse, error)
	Renew(ctx context.Context, noteId uuid.UUID, username string) (*dto.RenewLockResponse, error)
	Status(ctx context.Context, noteId uuid.UUID, username string) (*dto.LockStatusResponse, error)
	SweepExpired(ctx context.Context) (int, error)
}

type noteLockService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	sessions         *memory.EditSessionRepository
	evaluator        *permission.Evaluator
	locks            *keymutex.KeyMutex
	ttl              time.Duration
	logger           logger.ILogger
}

func NewNoteLockService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	sessions *memory.EditSessionRepository,
	locks *keymutex.KeyMutex,
	ttl time.Duration,
	log logger.ILogger,
) INoteLockService {
	return &noteLockService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		sessions:         sessions,
		evaluator:        permission.NewEvaluator(),
		locks:            locks,
		ttl:              ttl,
		logger:           log,
	}
}

// Acquire grants the edit lock when the note is unlocked, expired, or
// already held by the caller. A lock held by someone else is a denial,
// not an error. Re-acquiring your own active lock succeeds without
// touching acquiredAt or expiresAt; only Renew extends the clock.
func (s *noteLockService) Acquire(ctx context.Context, noteId uuid.UUID, username string) (*dto.AcquireLockResponse, error) {
	s.locks.Lock(noteId.String())
	defer s.locks.Unlock(noteId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, dto.NewNoteNotFound(noteId)
	}

	if !s.evaluator.CanWrite(note, username) {
		return nil, &dto.ForbiddenError{Reason: "user has no write access to this note"}
	}

	if note.IsLocked() {
		if note.IsLockedBy(username) {
			return &dto.AcquireLockResponse{
				Granted:       true,
				CurrentHolder: username,
				ExpiresAt:     note.LockExpiresAt,
			}, nil
		}
		// Held by someone else and not expired: normal denial outcome.
		return &dto.AcquireLockResponse{
			Granted:       false,
			CurrentHolder: *note.LockedBy,
			ExpiresAt:     note.LockExpiresAt,
		}, nil
	}

	// Unlocked, or expired lock being reclaimed.
	note.LockFor(username, s.ttl)

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	s.sessions.Save(&memory.EditSession{
		NoteId:     note.Id,
		Username:   username,
		AcquiredAt: *note.LockAcquiredAt,
		ExpiresAt:  *note.LockExpiresAt,
	})

	s.publishNoteEvent(ctx, events.TypeNoteLocked, note.Id, username)

	s.logger.Info("note_lock", "Lock acquired", map[string]interface{}{
		"note_id":    note.Id,
		"username":   username,
		"expires_at": note.LockExpiresAt,
	})

	return &dto.AcquireLockResponse{
		Granted:       true,
		CurrentHolder: username,
		ExpiresAt:     note.LockExpiresAt,
	}, nil
}

// Release clears the caller's lock. Releasing when no lock exists is an
// idempotent success. Releasing a lock held by another identity fails,
// even when that lock has already expired; expired locks held by others
// are reclaimed via Acquire, never released by a third party.
func (s *noteLockService) Release(ctx context.Context, noteId uuid.UUID, username string) (*dto.ReleaseLockResponse, error) {
	s.locks.Lock(noteId.String())
	defer s.locks.Unlock(noteId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, dto.NewNoteNotFound(noteId)
	}

	if note.LockedBy == nil {
		return &dto.ReleaseLockResponse{
			Success: true,
			Message: "note was not locked",
		}, nil
	}

	if *note.LockedBy != username {
		return nil, &dto.ForbiddenError{Reason: "lock is held by another user"}
	}

	note.Unlock()

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	s.sessions.Delete(note.Id)
	s.publishNoteEvent(ctx, events.TypeNoteUnlocked, note.Id, username)

	s.logger.Info("note_lock", "Lock released", map[string]interface{}{
		"note_id":  note.Id,
		"username": username,
	})

	return &dto.ReleaseLockResponse{
		Success: true,
		Message: "lock released",
	}, nil
}

// Renew extends an active self-held lock to now+TTL. An expired or absent
// lock cannot be renewed (the caller must Acquire again), and renewing a
// lock held by someone else is forbidden.
func (s *noteLockService) Renew(ctx context.Context, noteId uuid.UUID, username string) (*dto.RenewLockResponse, error) {
	s.locks.Lock(noteId.String())
	defer s.locks.Unlock(noteId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, dto.NewNoteNotFound(noteId)
	}

	if !note.IsLocked() {
		return &dto.RenewLockResponse{
			Success: false,
			Message: "no active lock to renew",
		}, nil
	}

	if !note.IsLockedBy(username) {
		return nil, &dto.ForbiddenError{Reason: "lock is held by another user"}
	}

	expiresAt := time.Now().Add(s.ttl)
	note.LockExpiresAt = &expiresAt

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	s.sessions.Save(&memory.EditSession{
		NoteId:     note.Id,
		Username:   username,
		AcquiredAt: *note.LockAcquiredAt,
		ExpiresAt:  expiresAt,
	})

	return &dto.RenewLockResponse{
		Success:   true,
		ExpiresAt: &expiresAt,
	}, nil
}

// Status reports the lock through the lazy-expiry lens: an expired lock
// is reported as unlocked even before any sweep has cleared it.
func (s *noteLockService) Status(ctx context.Context, noteId uuid.UUID, username string) (*dto.LockStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, dto.NewNoteNotFound(noteId)
	}

	res := &dto.LockStatusResponse{CanEditNow: note.CanBeEditedBy(username)}
	if note.IsLocked() {
		res.Locked = true
		res.Holder = *note.LockedBy
		res.ExpiresAt = note.LockExpiresAt
	}

	return res, nil
}

// SweepExpired clears every lock whose expiry has passed. This is
// advisory housekeeping: correctness never depends on it because every
// read path re-evaluates expiry lazily.
func (s *noteLockService) SweepExpired(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	notes, err := uow.NoteRepository().FindAll(ctx,
		specification.Locked{},
		specification.LockExpiredBefore{Time: time.Now()},
	)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, note := range notes {
		s.locks.Lock(note.Id.String())

		// Re-check under the serialization point: someone may have
		// reclaimed the lock since the scan.
		fresh, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: note.Id})
		if err != nil {
			s.locks.Unlock(note.Id.String())
			return cleared, err
		}
		if fresh == nil || !fresh.HasExpiredLock() {
			s.locks.Unlock(note.Id.String())
			continue
		}

		holder := *fresh.LockedBy
		fresh.Unlock()

		if err := uow.NoteRepository().Update(ctx, fresh); err != nil {
			s.locks.Unlock(note.Id.String())
			return cleared, err
		}

		s.sessions.Delete(fresh.Id)
		s.publishNoteEvent(ctx, events.TypeNoteUnlocked, fresh.Id, holder)
		s.locks.Unlock(note.Id.String())
		cleared++
	}

	if cleared > 0 {
		s.logger.Info("note_lock", "Expired locks swept", map[string]interface{}{
			"cleared": cleared,
		})
	}

	return cleared, nil
}

func (s *noteLockService) publishNoteEvent(ctx context.Context, eventType string, noteId uuid.UUID, username string) {
	payload := dto.NoteEventMessage{
		Type:       eventType,
		NoteId:     noteId,
		Username:   username,
		OccurredAt: time.Now(),
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return
	}
	// Events are auxiliary: log failures but never fail the operation.
	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		s.logger.Warn("note_lock", "Failed to publish note event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
