package constants

// HTTP Header Names
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderUserAgent      = "User-Agent"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
	HeaderDeviceID       = "Device-Id"
	HeaderDeviceType     = "Device-Type"
	HeaderDeviceToken    = "Device-Token"
)

const BearerPrefix = "Bearer"

// Common HTTP Error Messages
const (
	MsgUnauthorized       = "Authentication credentials were not provided."
	MsgForbidden          = "You do not have permission to perform this action."
	MsgNotFound           = "Not found."
	MsgBadRequest         = "Invalid request"
	MsgInternalError      = "Internal server error"
	MsgServiceUnavailable = "Service temporarily unavailable"
	MsgTooManyRequests    = "Request was throttled."
)

// Success details returned in the envelope
const (
	MsgRegistered         = "User Profile created and verification email has been sent successfully."
	MsgProfileFetched     = "Successfully fetched user profile"
	MsgMeFetched          = "User data fetched successfully"
	MsgProfileUpdated     = "User profile updated successfully"
	MsgProfileDataFetched = "Profile data fetched successfully"
	MsgUsersFetched       = "Users fetched successfully"
	MsgPasswordChanged    = "Password changed successfully"
	MsgAlreadyVerified    = "User is already verified"
	MsgVerificationSent   = "Success, please check your email for verification code"
	MsgEmailVerified      = "Your email has been verified successfully."
	MsgResetCodeSent      = "An email has been sent to your email containing verification code."
	MsgResetCodeVerified  = "Code verified successfully"
	MsgPasswordReset      = "Your password has been reset successfully."
	MsgTokenObtained      = "Token obtained successfully"
	MsgTokenRefreshed     = "Token refreshed successfully"
	MsgTokenRevoked       = "Token revoked successfully"
	MsgTokenValid         = "Token is valid"
)
