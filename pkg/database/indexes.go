package database

import (
	"fmt"

	"gorm.io/gorm"
)

// lookupIndexes back the case-insensitive identity lookups of login and
// password reset. Expression indexes are understood by postgres and sqlite.
var lookupIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_lower_email ON users (LOWER(email))",
	"CREATE INDEX IF NOT EXISTS idx_users_lower_username ON users (LOWER(username))",
	"CREATE INDEX IF NOT EXISTS idx_verification_codes_created_at_type ON verification_codes (created_at, code_type)",
}

func EnsureIndexes(db *gorm.DB) error {
	for _, indexSQL := range lookupIndexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
