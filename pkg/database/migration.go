package database

import (
	"github.com/Payphone-Digital/accounts/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models and then creates the
// indexes gorm tags cannot express.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.Skill{},
		&model.Interest{},
		&model.VerificationCode{},
		&model.UserDevice{},
		&model.AuthEvent{},
	)
	if err != nil {
		return err
	}
	return EnsureIndexes(db)
}
