package database

import (
	"errors"
	"os"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdmin defines the default superuser credentials
type DefaultAdmin struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

const devAdminPassword = "Admin@12345"

// GetDefaultAdmin returns the default superuser. The password comes from
// SEED_ADMIN_PASSWORD and falls back to a fixed development password.
func GetDefaultAdmin() DefaultAdmin {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = devAdminPassword
	}
	return DefaultAdmin{
		Username:  "admin",
		FirstName: "Admin",
		LastName:  "Accounts",
		Email:     "admin@accounts.local",
		Password:  password,
	}
}

// Seed creates initial data for the database. Production never gets the
// development password: without SEED_ADMIN_PASSWORD the admin is not seeded.
func Seed(db *gorm.DB, environment string) error {
	if environment == constants.EnvProduction && os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		logger.Warn("Skipping admin seed, SEED_ADMIN_PASSWORD is not set").
			String("environment", environment).
			Log()
		return nil
	}
	return SeedAdmin(db, GetDefaultAdmin())
}

// SeedAdmin creates the superuser and its profile if no user owns the email yet.
func SeedAdmin(db *gorm.DB, admin DefaultAdmin) error {
	var existing model.User
	err := db.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		user := model.User{
			Username:        admin.Username,
			FirstName:       admin.FirstName,
			LastName:        admin.LastName,
			Email:           admin.Email,
			Password:        string(hashedPassword),
			IsEmailVerified: true,
			IsActive:        true,
			IsStaff:         true,
			IsSuperuser:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&model.UserProfile{
			UserID:    user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
		}).Error
	})
}
