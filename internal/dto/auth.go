package dto

// TokenObtainRequest accepts a username, email or phone number as login.
type TokenObtainRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenRefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type TokenVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenAccessResponse struct {
	Access string `json:"access"`
}
