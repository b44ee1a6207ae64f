package constants

// CodeType is the purpose a verification code was issued for.
type CodeType string

const (
	CodeTypeEmailVerification CodeType = "email_verification"
	CodeTypePasswordReset     CodeType = "password_reset"
)

func (t CodeType) Valid() bool {
	return t == CodeTypeEmailVerification || t == CodeTypePasswordReset
}

// Password reset lookup fields
const (
	LookupFieldEmail    = "email"
	LookupFieldUsername = "username"
	LookupFieldPhone    = "phone"
)

// Auth event names written to the audit table
const (
	EventPrePasswordReset  = "pre_password_reset"
	EventPostPasswordReset = "post_password_reset"
	EventPasswordChanged   = "password_changed"
	EventEmailVerified     = "email_verified"
	EventTokenObtained     = "token_obtained"
	EventTokenRevoked      = "token_revoked"
)

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)
