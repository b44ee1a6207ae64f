package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) conn(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).WithContext(ctx)
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.UserProfile) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	if err := r.conn(ctx).Omit(clause.Associations).Create(profile).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create profile").
			Uint("user_id", profile.UserID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Profile created").
		Uint("user_id", profile.UserID).
		Duration(time.Since(start)).
		Log()
	return nil
}

// GetByUserID loads the profile with its skills and interests.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uint) (*model.UserProfile, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByUserID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var profile model.UserProfile
	err := r.conn(ctx).
		Preload("Skills", func(db *gorm.DB) *gorm.DB { return db.Order("skills.id") }).
		Preload("Interests", func(db *gorm.DB) *gorm.DB { return db.Order("interests.id") }).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		logger.DebugWithContext(ctx, "Profile lookup failed").
			Uint("user_id", userID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.UserProfile{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Save writes scalar columns only. Associations are changed with AddSkills
// and AddInterests.
func (r *ProfileRepository) Save(ctx context.Context, profile *model.UserProfile) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Save")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	err := r.conn(ctx).Omit(clause.Associations).Save(profile).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to save profile").
			Uint("user_id", profile.UserID).
			Duration(time.Since(start)).
			Err(err).
			Log()
	}
	return err
}

// AddSkills links the named skills to the profile, creating unknown names.
// Existing links are kept.
func (r *ProfileRepository) AddSkills(ctx context.Context, profile *model.UserProfile, names []string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "AddSkills")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	skills := make([]model.Skill, 0, len(names))
	for _, name := range normalizeNames(names) {
		skill := model.Skill{Name: name}
		if err := r.conn(ctx).Where(model.Skill{Name: name}).FirstOrCreate(&skill).Error; err != nil {
			return err
		}
		skills = append(skills, skill)
	}
	if len(skills) == 0 {
		return nil
	}

	if err := r.conn(ctx).Model(profile).Association("Skills").Append(&skills); err != nil {
		logger.ErrorWithContext(ctx, "Failed to link skills").
			Uint("user_id", profile.UserID).
			Err(err).
			Log()
		return err
	}
	return nil
}

// AddInterests behaves like AddSkills for interests.
func (r *ProfileRepository) AddInterests(ctx context.Context, profile *model.UserProfile, names []string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "AddInterests")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	interests := make([]model.Interest, 0, len(names))
	for _, name := range normalizeNames(names) {
		interest := model.Interest{Name: name}
		if err := r.conn(ctx).Where(model.Interest{Name: name}).FirstOrCreate(&interest).Error; err != nil {
			return err
		}
		interests = append(interests, interest)
	}
	if len(interests) == 0 {
		return nil
	}

	if err := r.conn(ctx).Model(profile).Association("Interests").Append(&interests); err != nil {
		logger.ErrorWithContext(ctx, "Failed to link interests").
			Uint("user_id", profile.UserID).
			Err(err).
			Log()
		return err
	}
	return nil
}

func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
