package service

import (
	"context"
	"time"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IUserService maintains the minimal identity records the permission
// model keys on. Credentials and login flows live outside this core.
type IUserService interface {
	Register(ctx context.Context, username, email, fullName string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUserService(uowFactory unitofwork.RepositoryFactory) IUserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

func (s *userService) Register(ctx context.Context, username, email, fullName string) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := &entity.User{
		Id:        uuid.New(),
		Username:  username,
		Email:     email,
		FullName:  fullName,
		CreatedAt: time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &dto.NotFoundError{Resource: "user", Id: username}
	}

	return user, nil
}
