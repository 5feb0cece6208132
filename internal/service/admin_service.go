package service

import (
	"time"

	"graphical-auth-service/internal/domain"
	"graphical-auth-service/internal/repository"
)

// CredentialSummary is what the admin surface exposes about a graphical
// credential. Salt and hash values never leave the store.
type CredentialSummary struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminService struct {
	userRepo       repository.UserRepository
	credentialRepo repository.GraphicalCredentialRepository
}

func NewAdminService(userRepo repository.UserRepository, credentialRepo repository.GraphicalCredentialRepository) *AdminService {
	return &AdminService{userRepo: userRepo, credentialRepo: credentialRepo}
}

func (s *AdminService) ListUsers() ([]domain.User, error) {
	return s.userRepo.List()
}

func (s *AdminService) ListCredentials() ([]CredentialSummary, error) {
	creds, err := s.credentialRepo.ListWithOwners()
	if err != nil {
		return nil, err
	}
	out := make([]CredentialSummary, 0, len(creds))
	for _, c := range creds {
		summary := CredentialSummary{UserID: c.UserID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
		if c.User != nil {
			summary.Username = c.User.Username
			summary.Email = c.User.Email
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *AdminService) DeleteUser(userID uint) error {
	return s.userRepo.Delete(userID)
}
