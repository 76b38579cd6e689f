package service

import (
	"context"
	"errors"

	"crosspost/internal/models"
	"crosspost/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, userID int64) (*models.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetUserInfo(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}
