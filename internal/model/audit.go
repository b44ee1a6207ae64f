package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuthEvent is an append-only record of security relevant account changes.
type AuthEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"column:user_id;not null;index" json:"user_id"`
	Event     string            `gorm:"column:event;size:64;not null;index" json:"event"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}
