package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).WithContext(ctx)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User
	result := r.conn(ctx).Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by ID failed").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("user_id", id).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByEmail matches the email exactly.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByEmail")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var user model.User
	result := r.conn(ctx).Where("email = ?", email).First(&user)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by email failed").
			String("email", email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// loginFields are tried in order, so a username always wins over another
// user's email or phone that happens to hold the same string.
var loginFields = []string{constants.LookupFieldUsername, constants.LookupFieldEmail, constants.LookupFieldPhone}

// GetByLogin resolves the identifier a client logs in with. It may be the
// username, the email or the phone number.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByLogin")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	for _, field := range loginFields {
		var user model.User
		err := r.conn(ctx).Where(field+" = ?", login).First(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.DebugWithContext(ctx, "User lookup by login failed").
				String("field", field).
				Duration(time.Since(start)).
				Err(err).
				Log()
			return nil, err
		}
	}

	logger.DebugWithContext(ctx, "No user matches login").
		Duration(time.Since(start)).
		Log()
	return nil, gorm.ErrRecordNotFound
}

// FindByField returns every user whose field equals value ignoring case.
// Only the password reset lookup fields are accepted.
func (r *UserRepository) FindByField(ctx context.Context, field, value string) ([]model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "FindByField")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	switch field {
	case constants.LookupFieldEmail, constants.LookupFieldUsername, constants.LookupFieldPhone:
	default:
		return nil, gorm.ErrInvalidField
	}

	start := time.Now()
	var users []model.User
	err := r.conn(ctx).
		Where("LOWER("+field+") = ?", strings.ToLower(value)).
		Order("id").
		Find(&users).Error
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to find users by field").
			String("field", field).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Users matched by field").
		String("field", field).
		Int("count", len(users)).
		Duration(duration).
		Log()

	return users, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// GetAll pages through users, optionally filtered by a search term matched
// against names, email and username.
func (r *UserRepository) GetAll(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetAll")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting all users").
		Int("limit", limit).
		Int("offset", offset).
		String("search", search).
		Log()

	start := time.Now()
	var users []model.User
	var total int64

	query := r.conn(ctx).Model(&model.User{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(username) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").
			Err(err).
			Log()
		return nil, 0, err
	}

	if err := query.Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("limit", limit).
			Int("offset", offset).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.InfoWithContext(ctx, "Users retrieved successfully").
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.conn(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// UpdateFields applies a partial update to one user.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateFields")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	if len(fields) == 0 {
		return nil
	}

	start := time.Now()
	result := r.conn(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update").
			Uint("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.DebugWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Int("fields", len(fields)).
		Duration(duration).
		Log()

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"password": hashedPassword})
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uint) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"is_email_verified": true})
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"last_login": at})
}

// Delete removes the user. Profile, codes and devices go with it.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	err := GetDB(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&model.VerificationCode{}, &model.UserDevice{}} {
			if err := tx.Where("user_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		var profile model.UserProfile
		if err := tx.Where("user_id = ?", id).Limit(1).Find(&profile).Error; err != nil {
			return err
		}
		if profile.UserID != 0 {
			if err := tx.Model(&profile).Association("Skills").Clear(); err != nil {
				return err
			}
			if err := tx.Model(&profile).Association("Interests").Clear(); err != nil {
				return err
			}
			if err := tx.Delete(&profile).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			Uint("user_id", id).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Duration(time.Since(start)).
		Log()

	return nil
}
