package contract

import (
	"context"

	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
