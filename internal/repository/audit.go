package repository

import (
	"context"

	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, userID uint, event string, metadata map[string]interface{}) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Record")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	entry := model.AuthEvent{
		UserID:   userID,
		Event:    event,
		Metadata: datatypes.JSONMap(metadata),
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(&entry).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to record auth event").
			Uint("user_id", userID).
			String("event", event).
			Err(err).
			Log()
		return err
	}
	return nil
}

// ListByUser returns the user's events, newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID uint) ([]model.AuthEvent, error) {
	var events []model.AuthEvent
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&events).Error
	return events, err
}
