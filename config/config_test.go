package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Account.VerificationCodeExpiry)
	assert.Equal(t, "email", cfg.Account.PasswordResetLookupField)
	assert.True(t, cfg.Account.RequireUsablePassword)
	assert.False(t, cfg.Account.NoInformationLeakage)
	assert.False(t, cfg.Account.SendEmailOnSignup)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessLifetime)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("VERIFICATION_CODE_EXPIRY_TIME", "2h")
	t.Setenv("PASSWORD_RESET_LOOKUP_FIELD", "username")
	t.Setenv("NO_INFORMATION_LEAKAGE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_HOST_USER", "mailer")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Account.VerificationCodeExpiry)
	assert.Equal(t, "username", cfg.Account.PasswordResetLookupField)
	assert.True(t, cfg.Account.NoInformationLeakage)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.MailEnabled())
}

func TestLoadConfig_ExpiryInHours(t *testing.T) {
	t.Setenv("VERIFICATION_CODE_EXPIRY_TIME", "48")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, cfg.Account.VerificationCodeExpiry)

	t.Setenv("VERIFICATION_CODE_EXPIRY_TIME", "0")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownLookupField(t *testing.T) {
	t.Setenv("PASSWORD_RESET_LOOKUP_FIELD", "nickname")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "real-secret")
	_, err = LoadConfig()
	assert.NoError(t, err)
}
