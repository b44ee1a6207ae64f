package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("production"))
	require.NoError(t, err, "open sqlite")
	require.NoError(t, database.AutoMigrate(db), "migrate")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func seedUser(t *testing.T, db *gorm.DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    email,
		Password: "hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
