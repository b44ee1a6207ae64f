package service

import (
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
)

// AccountSettings are the knobs of the verification and reset flows.
type AccountSettings struct {
	CodeExpiry            time.Duration
	LookupField           string
	RequireUsablePassword bool
	NoInformationLeakage  bool
	SendEmailOnSignup     bool
	FrontendURL           string
}

func DefaultAccountSettings() AccountSettings {
	return AccountSettings{
		CodeExpiry:            24 * time.Hour,
		LookupField:           constants.LookupFieldEmail,
		RequireUsablePassword: true,
		SendEmailOnSignup:     false,
	}
}

func AccountSettingsFromConfig(cfg config.AccountConfig) AccountSettings {
	s := AccountSettings{
		CodeExpiry:            cfg.VerificationCodeExpiry,
		LookupField:           cfg.PasswordResetLookupField,
		RequireUsablePassword: cfg.RequireUsablePassword,
		NoInformationLeakage:  cfg.NoInformationLeakage,
		SendEmailOnSignup:     cfg.SendEmailOnSignup,
		FrontendURL:           cfg.FrontendURL,
	}
	if s.CodeExpiry <= 0 {
		s.CodeExpiry = 24 * time.Hour
	}
	if s.LookupField == "" {
		s.LookupField = constants.LookupFieldEmail
	}
	return s
}
