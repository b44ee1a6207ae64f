package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert creates the device or moves an existing device_id to the new owner
// and details.
func (r *DeviceRepository) Upsert(ctx context.Context, device *model.UserDevice) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Upsert")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	err := GetDB(ctx, r.db).WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_type", "device_token", "updated_at"}),
		}).
		Create(device).Error

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to upsert device").
			Uint("user_id", device.UserID).
			String("device_id", device.DeviceID).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Device registered").
		Uint("user_id", device.UserID).
		String("device_id", device.DeviceID).
		Duration(time.Since(start)).
		Log()
	return nil
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID uint) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&devices).Error
	return devices, err
}
