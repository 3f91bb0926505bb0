package mapper

import (
	"encoding/json"
	"time"

	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/model"

	"gorm.io/datatypes"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	return &entity.Note{
		Id:             n.Id,
		Title:          n.Title,
		Content:        n.Content,
		Author:         n.Author,
		UserId:         n.UserId,
		PermissionKind: entity.PermissionKind(n.PermissionKind),
		Readers:        jsonToSet(n.Readers),
		Writers:        jsonToSet(n.Writers),
		Tags:           jsonToSet(n.Tags),
		Folders:        jsonToSet(n.Folders),
		LockedBy:       n.LockedBy,
		LockAcquiredAt: n.LockAcquiredAt,
		LockExpiresAt:  n.LockExpiresAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	if n == nil {
		return nil
	}

	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}

	return &model.Note{
		Id:             n.Id,
		Title:          n.Title,
		Content:        n.Content,
		Author:         n.Author,
		UserId:         n.UserId,
		PermissionKind: string(n.PermissionKind),
		Readers:        setToJSON(n.Readers),
		Writers:        setToJSON(n.Writers),
		Tags:           setToJSON(n.Tags),
		Folders:        setToJSON(n.Folders),
		LockedBy:       n.LockedBy,
		LockAcquiredAt: n.LockAcquiredAt,
		LockExpiresAt:  n.LockExpiresAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *NoteMapper) ToEntities(notes []*model.Note) []*entity.Note {
	entities := make([]*entity.Note, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}

// jsonToSet decodes a JSON array column into a string slice.
// A null or malformed column maps to the empty set.
func jsonToSet(data datatypes.JSON) []string {
	if len(data) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return []string{}
	}
	return values
}

func setToJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}
