package service

import (
	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/repository"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(userID uint) (*models.ProfileResponse, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	codes, err := s.users.AmbassadorCountries(userID)
	if err != nil {
		return nil, err
	}

	return &models.ProfileResponse{
		User:                *user,
		AmbassadorCountries: codes,
	}, nil
}
