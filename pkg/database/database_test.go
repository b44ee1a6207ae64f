package database

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig("production"))
	require.NoError(t, err, "open sqlite")
	return db
}

func TestAutoMigrate_IsRepeatable(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "user_profiles", "verification_codes", "user_devices", "auth_events", "user_profile_skills"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedAdmin_CreatesUserAndProfileOnce(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, AutoMigrate(db))

	admin := GetDefaultAdmin()
	require.NoError(t, SeedAdmin(db, admin))
	require.NoError(t, SeedAdmin(db, admin))

	var users []model.User
	require.NoError(t, db.Preload("Profile").Find(&users).Error)
	require.Len(t, users, 1)

	user := users[0]
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.Profile)
	assert.Equal(t, admin.Email, user.Profile.Email)
	assert.True(t, user.HasUsablePassword())
}

func TestSeed_ByEnvironment(t *testing.T) {
	tests := []struct {
		name         string
		environment  string
		password     string
		wantAdmin    bool
		wantPassword string
	}{
		{"production without password", constants.EnvProduction, "", false, ""},
		{"production with password", constants.EnvProduction, "Pr0d-Secret!", true, "Pr0d-Secret!"},
		{"development falls back", constants.DefaultEnvironment, "", true, devAdminPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SEED_ADMIN_PASSWORD", tt.password)
			db := newTestDB(t)
			require.NoError(t, AutoMigrate(db))

			require.NoError(t, Seed(db, tt.environment))

			var users []model.User
			require.NoError(t, db.Find(&users).Error)
			if !tt.wantAdmin {
				assert.Empty(t, users)
				return
			}
			require.Len(t, users, 1)
			assert.True(t, users[0].IsSuperuser)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(tt.wantPassword)))
		})
	}
}
