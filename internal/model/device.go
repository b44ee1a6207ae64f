package model

import "time"

// UserDevice records the client a token pair was issued to.
type UserDevice struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	DeviceID    string    `gorm:"column:device_id;size:150;uniqueIndex;not null" json:"device_id"`
	DeviceType  string    `gorm:"column:device_type;size:20" json:"device_type"`
	DeviceToken string    `gorm:"column:device_token;size:150" json:"device_token"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
