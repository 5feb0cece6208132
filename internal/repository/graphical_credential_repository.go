package repository

import (
	"graphical-auth-service/internal/domain"

	"gorm.io/gorm"
)

type GraphicalCredentialRepository interface {
	Create(credential *domain.GraphicalCredential) error
	FindByUserID(userID uint) (*domain.GraphicalCredential, error)
	ListWithOwners() ([]domain.GraphicalCredential, error)
}

type GormGraphicalCredentialRepository struct{ db *gorm.DB }

func NewGraphicalCredentialRepository(db *gorm.DB) GraphicalCredentialRepository {
	return &GormGraphicalCredentialRepository{db: db}
}

func (r *GormGraphicalCredentialRepository) Create(credential *domain.GraphicalCredential) error {
	return r.db.Create(credential).Error
}

func (r *GormGraphicalCredentialRepository) FindByUserID(userID uint) (*domain.GraphicalCredential, error) {
	var c domain.GraphicalCredential
	if err := r.db.Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormGraphicalCredentialRepository) ListWithOwners() ([]domain.GraphicalCredential, error) {
	var creds []domain.GraphicalCredential
	err := r.db.Preload("User").Order("id").Find(&creds).Error
	return creds, err
}
