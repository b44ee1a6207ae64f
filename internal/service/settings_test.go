package service

import (
	"testing"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountSettings_DefaultsMatchConfig(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	fromConfig := AccountSettingsFromConfig(cfg.Account)
	fromConfig.FrontendURL = ""

	assert.Equal(t, DefaultAccountSettings(), fromConfig)
	assert.False(t, fromConfig.SendEmailOnSignup)
}
