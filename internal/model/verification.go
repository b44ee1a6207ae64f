package model

import (
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
)

// VerificationCode is a single use code sent to a user by email.
type VerificationCode struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	Code      string             `gorm:"column:code;size:32;uniqueIndex;not null" json:"code"`
	UserID    uint               `gorm:"column:user_id;not null;index:idx_verification_codes_user_type" json:"user_id"`
	User      *User              `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CodeType  constants.CodeType `gorm:"column:code_type;size:32;not null;default:password_reset;index:idx_verification_codes_user_type" json:"code_type"`
	IsUsed    bool               `gorm:"column:is_used;not null" json:"is_used"`
	UsedAt    *time.Time         `gorm:"column:used_at" json:"used_at"`
	CreatedAt time.Time          `gorm:"index" json:"created_at"`
}

// ExpiresAt is the first instant at which the code no longer validates.
func (c *VerificationCode) ExpiresAt(expiry time.Duration) time.Time {
	return c.CreatedAt.Add(expiry)
}

func (c *VerificationCode) IsExpired(now time.Time, expiry time.Duration) bool {
	return now.After(c.ExpiresAt(expiry))
}
