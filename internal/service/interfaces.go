package service

import "graphical-auth-service/internal/domain"

type AuthServiceInterface interface {
	Register(username, email, password string, sequence []string) (*domain.User, error)
	Login(username, password string, sequence []string, ua, ip string) (*LoginResult, error)
	Refresh(refreshToken, ua, ip string) (*LoginResult, error)
	Logout(userID uint) error
	ParseUserID(subject string) (uint, error)
}

type UserServiceInterface interface {
	GetByID(id uint) (*domain.User, error)
	Sessions(userID uint) ([]domain.Session, error)
	RevokeSessions(userID uint) (int64, error)
}

type AdminServiceInterface interface {
	ListUsers() ([]domain.User, error)
	ListCredentials() ([]CredentialSummary, error)
	DeleteUser(userID uint) error
}
