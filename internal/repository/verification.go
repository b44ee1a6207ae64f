package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/gorm"
)

// VerificationCodeRepository stores verification codes. Listings are newest
// first.
type VerificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

func (r *VerificationCodeRepository) conn(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).WithContext(ctx)
}

// Create inserts the code. A clash on the unique code column surfaces as
// gorm.ErrDuplicatedKey.
func (r *VerificationCodeRepository) Create(ctx context.Context, code *model.VerificationCode) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	err := r.conn(ctx).Omit("User").Create(code).Error
	duration := time.Since(start)

	if err != nil {
		logger.WarnWithContext(ctx, "Failed to create verification code").
			Uint("user_id", code.UserID).
			String("code_type", string(code.CodeType)).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Verification code created").
		Uint("user_id", code.UserID).
		String("code_type", string(code.CodeType)).
		Duration(duration).
		Log()
	return nil
}

// GetByCode loads the code together with its owner.
func (r *VerificationCodeRepository) GetByCode(ctx context.Context, code string) (*model.VerificationCode, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByCode")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var vc model.VerificationCode
	err := r.conn(ctx).Preload("User").Where("code = ?", code).First(&vc).Error
	if err != nil {
		logger.DebugWithContext(ctx, "Verification code lookup failed").
			Err(err).
			Log()
		return nil, err
	}
	return &vc, nil
}

// GetLatest returns the newest code of codeType owned by userID.
func (r *VerificationCodeRepository) GetLatest(ctx context.Context, userID uint, codeType constants.CodeType) (*model.VerificationCode, error) {
	var vc model.VerificationCode
	err := r.conn(ctx).
		Where("user_id = ? AND code_type = ?", userID, codeType).
		Order("created_at DESC").Order("id DESC").
		First(&vc).Error
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

func (r *VerificationCodeRepository) ListByUser(ctx context.Context, userID uint, codeType constants.CodeType) ([]model.VerificationCode, error) {
	var codes []model.VerificationCode
	err := r.conn(ctx).
		Where("user_id = ? AND code_type = ?", userID, codeType).
		Order("created_at DESC").Order("id DESC").
		Find(&codes).Error
	return codes, err
}

func (r *VerificationCodeRepository) Delete(ctx context.Context, id uint) error {
	return r.conn(ctx).Delete(&model.VerificationCode{}, id).Error
}

// DeleteByUserAndType removes every code of codeType owned by userID.
func (r *VerificationCodeRepository) DeleteByUserAndType(ctx context.Context, userID uint, codeType constants.CodeType) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteByUserAndType")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.conn(ctx).
		Where("user_id = ? AND code_type = ?", userID, codeType).
		Delete(&model.VerificationCode{})

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete verification codes").
			Uint("user_id", userID).
			String("code_type", string(codeType)).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.DebugWithContext(ctx, "Verification codes deleted").
		Uint("user_id", userID).
		String("code_type", string(codeType)).
		Int64("rows_affected", result.RowsAffected).
		Duration(time.Since(start)).
		Log()
	return result.RowsAffected, nil
}

// DeleteCreatedBefore removes every code created strictly before cutoff.
func (r *VerificationCodeRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteCreatedBefore")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.conn(ctx).Where("created_at < ?", cutoff).Delete(&model.VerificationCode{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to sweep verification codes").
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithContext(ctx, "Expired verification codes swept").
			Int64("rows_affected", result.RowsAffected).
			Duration(time.Since(start)).
			Log()
	}
	return result.RowsAffected, nil
}
