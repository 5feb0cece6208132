package database

import (
	"errors"
	"log/slog"

	"graphical-auth-service/internal/domain"

	"gorm.io/gorm"
)

// Seed promotes the bootstrap admin account, if it is already registered.
// Registration happens through the normal flow so the admin owns a graphical
// credential like everyone else; seeding only flips the role.
func Seed(db *gorm.DB, bootstrapAdminUsername string) error {
	if bootstrapAdminUsername == "" {
		return nil
	}
	var u domain.User
	if err := db.Where("username = ?", bootstrapAdminUsername).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("bootstrap admin not registered yet, skipping promotion", "username", bootstrapAdminUsername)
			return nil
		}
		return err
	}
	if u.Role == domain.RoleAdmin {
		return nil
	}
	if err := db.Model(&u).Update("role", domain.RoleAdmin).Error; err != nil {
		return err
	}
	slog.Info("bootstrap admin promoted", "username", bootstrapAdminUsername)
	return nil
}
