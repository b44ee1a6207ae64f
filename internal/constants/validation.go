package constants

const MinPasswordLength = 8

// Generated usernames and codes
const (
	GeneratedUsernameLength = 6
	UsernameAlphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	VerificationCodeLength  = 6
	VerificationCodeDigits  = "0123456789"
)

// Validation Patterns
const (
	UsernamePattern = `^[\w.]+$`
	PhonePattern    = `^\+?[0-9]{7,20}$`
)
