package database

import (
	"graphical-auth-service/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.GraphicalCredential{},
		&domain.Session{},
	)
}
