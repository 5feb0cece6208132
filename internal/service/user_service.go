package service

import (
	"graphical-auth-service/internal/domain"
	"graphical-auth-service/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	tokenSvc *TokenService
}

func NewUserService(userRepo repository.UserRepository, tokenSvc *TokenService) *UserService {
	return &UserService{userRepo: userRepo, tokenSvc: tokenSvc}
}

func (s *UserService) GetByID(id uint) (*domain.User, error) {
	return s.userRepo.FindByID(id)
}

func (s *UserService) Sessions(userID uint) ([]domain.Session, error) {
	return s.tokenSvc.Sessions(userID)
}

func (s *UserService) RevokeSessions(userID uint) (int64, error) {
	return s.tokenSvc.RevokeAll(userID, "user_request")
}
