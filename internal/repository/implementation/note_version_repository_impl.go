package implementation

import (
	"context"
	"errors"

	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/mapper"
	"collab-notes-be/internal/model"
	"collab-notes-be/internal/repository/contract"
	"collab-notes-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteVersionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteVersionMapper
}

func NewNoteVersionRepository(db *gorm.DB) contract.NoteVersionRepository {
	return &NoteVersionRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteVersionMapper(),
	}
}

func (r *NoteVersionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteVersionRepositoryImpl) Create(ctx context.Context, version *entity.NoteVersion) error {
	m := r.mapper.ToModel(version)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*version = *r.mapper.ToEntity(m)
	return nil
}

func (r *NoteVersionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NoteVersion, error) {
	var m model.NoteVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteVersionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NoteVersion, error) {
	var models []*model.NoteVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteVersionRepositoryImpl) FindLatestByNoteId(ctx context.Context, noteId uuid.UUID) (*entity.NoteVersion, error) {
	return r.FindOne(ctx,
		specification.ByNoteID{NoteID: noteId},
		specification.OrderBy{Field: "version_number", Desc: true},
	)
}

func (r *NoteVersionRepositoryImpl) MaxVersionNumber(ctx context.Context, noteId uuid.UUID) (int, error) {
	// COALESCE keeps the scan working when the note has no versions yet.
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.NoteVersion{}).
		Where("note_id = ?", noteId).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *NoteVersionRepositoryImpl) DeleteAllByNoteId(ctx context.Context, noteId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("note_id = ?", noteId).Delete(&model.NoteVersion{}).Error
}

func (r *NoteVersionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.NoteVersion{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
