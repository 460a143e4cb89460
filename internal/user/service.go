package user

import (
	"fmt"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

type Service struct {
	repo storage.UserRepository
}

func NewService(repo storage.UserRepository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(userID int64) (*Profile, error) {
	u, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return NewProfile(u), nil
}
