package service

import (
	"context"
	"time"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/repository/specification"
	"collab-notes-be/internal/repository/unitofwork"
	"collab-notes-be/pkg/permission"

	"github.com/google/uuid"
)

type INoteVersionService interface {
	// HasConflict reports whether a client edit based on baseVersion has
	// been superseded by a materially different commit. The latest
	// committed version is returned alongside so callers can build a
	// conflict view without a second fetch.
	HasConflict(ctx context.Context, noteId uuid.UUID, baseVersion int, title, content string) (bool, *entity.NoteVersion, error)

	// CreateVersion appends the next snapshot of the note inside the
	// caller's unit of work. Callers must hold the note's serialization
	// point: version numbering is read-max-then-increment.
	CreateVersion(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note, username, changeDescription string) (*entity.NoteVersion, error)

	GetHistory(ctx context.Context, noteId uuid.UUID, username string) ([]*dto.NoteVersionResponse, error)
	GetVersion(ctx context.Context, noteId uuid.UUID, versionNumber int, username string) (*dto.NoteVersionResponse, error)
	CompareVersions(ctx context.Context, noteId uuid.UUID, base, target int, username string) (*dto.VersionComparisonResponse, error)
}

type noteVersionService struct {
	uowFactory unitofwork.RepositoryFactory
	evaluator  *permission.Evaluator
}

func NewNoteVersionService(uowFactory unitofwork.RepositoryFactory) INoteVersionService {
	return &noteVersionService{
		uowFactory: uowFactory,
		evaluator:  permission.NewEvaluator(),
	}
}

func (s *noteVersionService) HasConflict(ctx context.Context, noteId uuid.UUID, baseVersion int, title, content string) (bool, *entity.NoteVersion, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	latest, err := uow.NoteVersionRepository().FindLatestByNoteId(ctx, noteId)
	if err != nil {
		return false, nil, err
	}
	if latest == nil {
		// First-ever save, nothing to conflict with.
		return false, nil, nil
	}
	if latest.VersionNumber <= baseVersion {
		return false, latest, nil
	}

	// A newer commit exists. It only counts as a conflict when it
	// actually differs from what the client is submitting; a byte
	// identical intervening commit is a no-op re-save.
	if latest.Title == title && latest.Content == content {
		return false, latest, nil
	}

	return true, latest, nil
}

func (s *noteVersionService) CreateVersion(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note, username, changeDescription string) (*entity.NoteVersion, error) {
	max, err := uow.NoteVersionRepository().MaxVersionNumber(ctx, note.Id)
	if err != nil {
		return nil, err
	}

	version := &entity.NoteVersion{
		Id:                uuid.New(),
		NoteId:            note.Id,
		VersionNumber:     max + 1,
		Title:             note.Title,
		Content:           note.Content,
		CreatedBy:         username,
		ChangeDescription: changeDescription,
		CreatedAt:         time.Now(),
	}

	if err := uow.NoteVersionRepository().Create(ctx, version); err != nil {
		return nil, err
	}

	return version, nil
}

func (s *noteVersionService) GetHistory(ctx context.Context, noteId uuid.UUID, username string) ([]*dto.NoteVersionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.authorizeRead(ctx, uow, noteId, username); err != nil {
		return nil, err
	}

	versions, err := uow.NoteVersionRepository().FindAll(ctx,
		specification.ByNoteID{NoteID: noteId},
		specification.OrderBy{Field: "version_number", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NoteVersionResponse, 0, len(versions))
	for _, v := range versions {
		res = append(res, s.toResponse(v))
	}

	return res, nil
}

func (s *noteVersionService) GetVersion(ctx context.Context, noteId uuid.UUID, versionNumber int, username string) (*dto.NoteVersionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.authorizeRead(ctx, uow, noteId, username); err != nil {
		return nil, err
	}

	version, err := s.findVersion(ctx, uow, noteId, versionNumber)
	if err != nil {
		return nil, err
	}

	return s.toResponse(version), nil
}

func (s *noteVersionService) CompareVersions(ctx context.Context, noteId uuid.UUID, base, target int, username string) (*dto.VersionComparisonResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.authorizeRead(ctx, uow, noteId, username); err != nil {
		return nil, err
	}

	baseVersion, err := s.findVersion(ctx, uow, noteId, base)
	if err != nil {
		return nil, err
	}
	targetVersion, err := s.findVersion(ctx, uow, noteId, target)
	if err != nil {
		return nil, err
	}

	return &dto.VersionComparisonResponse{
		NoteId:         noteId,
		Base:           s.toResponse(baseVersion),
		Target:         s.toResponse(targetVersion),
		TitleChanged:   baseVersion.Title != targetVersion.Title,
		ContentChanged: baseVersion.Content != targetVersion.Content,
	}, nil
}

func (s *noteVersionService) authorizeRead(ctx context.Context, uow unitofwork.UnitOfWork, noteId uuid.UUID, username string) error {
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return err
	}
	if note == nil {
		return dto.NewNoteNotFound(noteId)
	}
	if !s.evaluator.CanRead(note, username) {
		return &dto.ForbiddenError{Reason: "user has no read access to this note"}
	}
	return nil
}

func (s *noteVersionService) findVersion(ctx context.Context, uow unitofwork.UnitOfWork, noteId uuid.UUID, versionNumber int) (*entity.NoteVersion, error) {
	version, err := uow.NoteVersionRepository().FindOne(ctx,
		specification.ByNoteID{NoteID: noteId},
		specification.ByVersionNumber{VersionNumber: versionNumber},
	)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, &dto.NotFoundError{Resource: "note version", Id: noteId.String()}
	}
	return version, nil
}

func (s *noteVersionService) toResponse(v *entity.NoteVersion) *dto.NoteVersionResponse {
	return &dto.NoteVersionResponse{
		NoteId:            v.NoteId,
		VersionNumber:     v.VersionNumber,
		Title:             v.Title,
		Content:           v.Content,
		CreatedBy:         v.CreatedBy,
		ChangeDescription: v.ChangeDescription,
		CreatedAt:         v.CreatedAt,
	}
}
