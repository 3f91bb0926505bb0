// FILE: internal/service/note_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/pkg/logger"
	"collab-notes-be/internal/repository/memory"
	"collab-notes-be/internal/repository/specification"
	"collab-notes-be/internal/repository/unitofwork"
	"collab-notes-be/pkg/events"
	"collab-notes-be/pkg/keymutex"
	"collab-notes-be/pkg/permission"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type INoteService interface {
	Create(ctx context.Context, userId uuid.UUID, username string, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	ListMine(ctx context.Context, username string) ([]*dto.NoteResponse, error)
	Show(ctx context.Context, noteId uuid.UUID, username string) (*dto.NoteResponse, error)
	Update(ctx context.Context, username string, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, noteId uuid.UUID, username string) error
	Duplicate(ctx context.Context, noteId uuid.UUID, username string) (*dto.NoteResponse, error)
	UpdatePermissions(ctx context.Context, noteId uuid.UUID, username string, req *dto.UpdatePermissionsRequest) (*dto.NoteResponse, error)
	RestoreVersion(ctx context.Context, noteId uuid.UUID, username string, req *dto.RestoreVersionRequest) (*dto.NoteResponse, error)
}

type noteService struct {
	uowFactory       unitofwork.RepositoryFactory
	versionService   INoteVersionService
	publisherService IPublisherService
	sessions         *memory.EditSessionRepository
	evaluator        *permission.Evaluator
	locks            *keymutex.KeyMutex
	validate         *validator.Validate
	logger           logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	versionService INoteVersionService,
	publisherService IPublisherService,
	sessions *memory.EditSessionRepository,
	locks *keymutex.KeyMutex,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:       uowFactory,
		versionService:   versionService,
		publisherService: publisherService,
		sessions:         sessions,
		evaluator:        permission.NewEvaluator(),
		locks:            locks,
		validate:         validator.New(),
		logger:           log,
	}
}

// Create persists a new private note and its initial version snapshot in
// one transaction.
func (s *noteService) Create(ctx context.Context, userId uuid.UUID, username string, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	note := &entity.Note{
		Id:             uuid.New(),
		Title:          req.Title,
		Content:        req.Content,
		Author:         username,
		UserId:         userId,
		PermissionKind: entity.PermissionPrivate,
		Readers:        []string{},
		Writers:        []string{},
		Tags:           req.Tags,
		Folders:        req.Folders,
		CreatedAt:      time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().Create(ctx, note); err != nil {
		return nil, err
	}

	version, err := s.versionService.CreateVersion(ctx, uow, note, username, "Initial version")
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publishNoteEvent(ctx, events.TypeNoteVersionCreated, note.Id, username)

	s.logger.Info("note", "Note created", map[string]interface{}{
		"note_id": note.Id,
		"author":  username,
	})

	return s.toResponse(note, version.VersionNumber, username), nil
}

// ListMine returns the caller's own notes, newest first.
func (s *noteService) ListMine(ctx context.Context, username string) ([]*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	notes, err := uow.NoteRepository().FindAll(ctx, specification.AuthoredBy{Username: username})
	if err != nil {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	out := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		current, err := uow.NoteVersionRepository().MaxVersionNumber(ctx, note.Id)
		if err != nil {
			return nil, err
		}
		out = append(out, s.toResponse(note, current, username))
	}
	return out, nil
}

func (s *noteService) Show(ctx context.Context, noteId uuid.UUID, username string) (*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := s.findNote(ctx, uow, noteId)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.CanRead(note, username) {
		return nil, &dto.ForbiddenError{Reason: "user has no read access to this note"}
	}

	current, err := uow.NoteVersionRepository().MaxVersionNumber(ctx, note.Id)
	if err != nil {
		return nil, err
	}

	return s.toResponse(note, current, username), nil
}

// Update is the full save path: verify lock ownership, detect version
// conflicts against the client's base version, then persist the note and
// append the version snapshot in one transaction. The edit lock is
// released as part of that same write, so a failed commit leaves the
// lock in place.
func (s *noteService) Update(ctx context.Context, username string, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("note-service").Start(ctx, "NoteService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("note.id", req.Id.String()))

	s.locks.Lock(req.Id.String())
	defer s.locks.Unlock(req.Id.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := s.findNote(ctx, uow, req.Id)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.CanWrite(note, username) {
		return nil, &dto.ForbiddenError{Reason: "user has no write access to this note"}
	}
	if note.IsLocked() && !note.IsLockedBy(username) {
		return nil, &dto.ForbiddenError{
			Reason: fmt.Sprintf("note is being edited by %s", *note.LockedBy),
		}
	}

	conflict, latest, err := s.versionService.HasConflict(ctx, note.Id, req.BaseVersion, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, &dto.VersionConflictError{
			NoteId:        note.Id,
			BaseVersion:   req.BaseVersion,
			LatestVersion: latest.VersionNumber,
			LatestTitle:   latest.Title,
			LatestContent: latest.Content,
			LatestBy:      latest.CreatedBy,
			LatestAt:      latest.CreatedAt,
		}
	}

	now := time.Now()
	wasLocked := note.LockedBy != nil

	note.Title = req.Title
	note.Content = req.Content
	note.Tags = req.Tags
	note.Folders = req.Folders
	note.UpdatedAt = &now
	note.Unlock()

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	version, err := s.versionService.CreateVersion(ctx, uow, note, username, req.ChangeDescription)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sessions.Delete(note.Id)
	s.publishNoteEvent(ctx, events.TypeNoteVersionCreated, note.Id, username)
	if wasLocked {
		s.publishNoteEvent(ctx, events.TypeNoteUnlocked, note.Id, username)
	}

	s.logger.Info("note", "Note saved", map[string]interface{}{
		"note_id": note.Id,
		"version": version.VersionNumber,
		"by":      username,
	})

	return s.toResponse(note, version.VersionNumber, username), nil
}

// Delete removes the note together with its entire version history. Only
// the author may delete.
func (s *noteService) Delete(ctx context.Context, noteId uuid.UUID, username string) error {
	s.locks.Lock(noteId.String())
	defer s.locks.Unlock(noteId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := s.findNote(ctx, uow, noteId)
	if err != nil {
		return err
	}
	if !note.IsAuthor(username) {
		return &dto.ForbiddenError{Reason: "only the author can delete a note"}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.NoteVersionRepository().DeleteAllByNoteId(ctx, noteId); err != nil {
		return err
	}
	if err := uow.NoteRepository().Delete(ctx, noteId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.sessions.Delete(noteId)
	s.publishNoteEvent(ctx, events.TypeNoteDeleted, noteId, username)

	return nil
}

// Duplicate copies a readable note into a fresh private note authored by
// the caller, with its own version history starting at 1.
func (s *noteService) Duplicate(ctx context.Context, noteId uuid.UUID, username string) (*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	source, err := s.findNote(ctx, uow, noteId)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.CanRead(source, username) {
		return nil, &dto.ForbiddenError{Reason: "user has no read access to this note"}
	}

	user, err := uow.UserRepository().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &dto.NotFoundError{Resource: "user", Id: username}
	}

	copyNote := &entity.Note{
		Id:             uuid.New(),
		Title:          source.Title + " (copy)",
		Content:        source.Content,
		Author:         username,
		UserId:         user.Id,
		PermissionKind: entity.PermissionPrivate,
		Readers:        []string{},
		Writers:        []string{},
		Tags:           source.Tags,
		Folders:        source.Folders,
		CreatedAt:      time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().Create(ctx, copyNote); err != nil {
		return nil, err
	}

	version, err := s.versionService.CreateVersion(ctx, uow, copyNote, username, "Duplicated from "+source.Id.String())
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return s.toResponse(copyNote, version.VersionNumber, username), nil
}

// UpdatePermissions reconfigures sharing. Author only; switching back to
// PRIVATE clears both sets.
func (s *noteService) UpdatePermissions(ctx context.Context, noteId uuid.UUID, username string, req *dto.UpdatePermissionsRequest) (*dto.NoteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	s.locks.Lock(noteId.String())
	defer s.locks.Unlock(noteId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := s.findNote(ctx, uow, noteId)
	if err != nil {
		return nil, err
	}
	if !note.IsAuthor(username) {
		return nil, &dto.ForbiddenError{Reason: "only the author can change permissions"}
	}

	note.PermissionKind = entity.PermissionKind(req.PermissionKind)
	if note.PermissionKind == entity.PermissionPrivate {
		note.Readers = []string{}
		note.Writers = []string{}
	} else {
		note.Readers = req.Readers
		note.Writers = req.Writers
	}
	now := time.Now()
	note.UpdatedAt = &now

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	current, err := uow.NoteVersionRepository().MaxVersionNumber(ctx, note.Id)
	if err != nil {
		return nil, err
	}

	return s.toResponse(note, current, username), nil
}

// RestoreVersion rewinds the note's content to a prior snapshot. The
// restore itself commits a new version rather than rewriting history.
func (s *noteService) RestoreVersion(ctx context.Context, noteId uuid.UUID, username string, req *dto.RestoreVersionRequest) (*dto.NoteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	s.locks.Lock(noteId.String())
	defer s.locks.Unlock(noteId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := s.findNote(ctx, uow, noteId)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.CanWrite(note, username) {
		return nil, &dto.ForbiddenError{Reason: "user has no write access to this note"}
	}
	if note.IsLocked() && !note.IsLockedBy(username) {
		return nil, &dto.ForbiddenError{
			Reason: fmt.Sprintf("note is being edited by %s", *note.LockedBy),
		}
	}

	target, err := uow.NoteVersionRepository().FindOne(ctx,
		specification.ByNoteID{NoteID: noteId},
		specification.ByVersionNumber{VersionNumber: req.VersionNumber},
	)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &dto.NotFoundError{Resource: "note version", Id: noteId.String()}
	}

	now := time.Now()
	note.Title = target.Title
	note.Content = target.Content
	note.UpdatedAt = &now

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Restored from version %d", target.VersionNumber)
	version, err := s.versionService.CreateVersion(ctx, uow, note, username, description)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publishNoteEvent(ctx, events.TypeNoteVersionCreated, note.Id, username)

	return s.toResponse(note, version.VersionNumber, username), nil
}

func (s *noteService) findNote(ctx context.Context, uow unitofwork.UnitOfWork, noteId uuid.UUID) (*entity.Note, error) {
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, dto.NewNoteNotFound(noteId)
	}
	return note, nil
}

func (s *noteService) toResponse(note *entity.Note, currentVersion int, username string) *dto.NoteResponse {
	res := &dto.NoteResponse{
		Id:             note.Id,
		Title:          note.Title,
		Content:        note.Content,
		Author:         note.Author,
		PermissionKind: string(note.PermissionKind),
		Readers:        note.Readers,
		Writers:        note.Writers,
		Tags:           note.Tags,
		Folders:        note.Folders,
		CurrentVersion: currentVersion,
		CreatedAt:      note.CreatedAt,
		UpdatedAt:      note.UpdatedAt,
	}

	lock := &dto.LockStatusResponse{CanEditNow: note.CanBeEditedBy(username)}
	if note.IsLocked() {
		lock.Locked = true
		lock.Holder = *note.LockedBy
		lock.ExpiresAt = note.LockExpiresAt
	}
	res.Lock = lock

	return res
}

func (s *noteService) publishNoteEvent(ctx context.Context, eventType string, noteId uuid.UUID, username string) {
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
	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		s.logger.Warn("note", "Failed to publish note event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
