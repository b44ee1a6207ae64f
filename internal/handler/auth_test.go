package handler

import (
	"net/http"
	"testing"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func authRouter(tokens *MockTokens) *gin.Engine {
	h := NewAuthHandler(tokens)
	r := gin.New()
	r.POST("/auth/jwt/create", h.Create)
	r.POST("/auth/jwt/refresh", h.Refresh)
	r.POST("/auth/jwt/revoke", h.Revoke)
	r.POST("/auth/jwt/verify", h.Verify)
	return r
}

func TestAuthHandler_Create(t *testing.T) {
	tokens := new(MockTokens)
	device := service.DeviceInfo{ID: "dev-1", Type: "android", Token: "push"}
	tokens.On("ObtainPair", mock.Anything, "ada", "secret", device).
		Return(&service.TokenPair{Access: "a", Refresh: "r"}, &model.User{ID: 7}, nil)

	w, env := perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/create",
		map[string]string{"login": "ada", "password": "secret"},
		constants.HeaderDeviceID, "dev-1",
		constants.HeaderDeviceType, "android",
		constants.HeaderDeviceToken, "push",
	)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.StatusSuccess, env.Status)
	assert.Equal(t, constants.MsgTokenObtained, env.Detail)
	assert.Equal(t, "a", env.Data["access"])
	assert.Equal(t, "r", env.Data["refresh"])
	tokens.AssertExpectations(t)
}

func TestAuthHandler_CreateRejectsBadCredentials(t *testing.T) {
	tokens := new(MockTokens)
	tokens.On("ObtainPair", mock.Anything, "ada", "nope", service.DeviceInfo{}).
		Return(nil, nil, apperrors.ErrInvalidCredentials)

	w, env := perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/create",
		map[string]string{"login": "ada", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, constants.StatusError, env.Status)
	assert.Equal(t, apperrors.ErrInvalidCredentials.Message, env.Detail)
	assert.Equal(t, apperrors.CodeAuthenticationFailed, env.Data["code"])
}

func TestAuthHandler_CreateValidatesBody(t *testing.T) {
	tokens := new(MockTokens)

	w, env := perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/create",
		map[string]string{"login": "ada"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.MsgBadRequest, env.Detail)
	assert.Equal(t, apperrors.CodeValidation, env.Data["code"])
	assert.Contains(t, env.Data["errors"], "password")
	tokens.AssertNotCalled(t, "ObtainPair")
}

func TestAuthHandler_CreateMalformedJSON(t *testing.T) {
	w, env := perform(t, authRouter(new(MockTokens)), http.MethodPost, "/auth/jwt/create", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeParse, env.Data["code"])
}

func TestAuthHandler_Refresh(t *testing.T) {
	tokens := new(MockTokens)
	tokens.On("Refresh", mock.Anything, "r").Return("new-access", nil)
	tokens.On("Refresh", mock.Anything, "revoked").Return("", apperrors.ErrInvalidToken)

	w, env := perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/refresh", map[string]string{"refresh": "r"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new-access", env.Data["access"])
	assert.NotContains(t, env.Data, "refresh")

	w, env = perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/refresh", map[string]string{"refresh": "revoked"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeInvalidToken, env.Data["code"])
}

func TestAuthHandler_RevokeAndVerify(t *testing.T) {
	tokens := new(MockTokens)
	tokens.On("Revoke", mock.Anything, "r").Return(nil)
	tokens.On("Verify", mock.Anything, "t").Return(&service.Claims{UserID: 1}, nil)

	w, env := perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/revoke", map[string]string{"refresh": "r"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgTokenRevoked, env.Detail)
	assert.Empty(t, env.Data)

	w, env = perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/verify", map[string]string{"token": "t"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgTokenValid, env.Detail)
}

func TestAuthHandler_RevokeWhenBlacklistDown(t *testing.T) {
	tokens := new(MockTokens)
	tokens.On("Revoke", mock.Anything, "r").
		Return(apperrors.WrapError(apperrors.ErrServiceUnavailable, assert.AnError))

	w, env := perform(t, authRouter(tokens), http.MethodPost, "/auth/jwt/revoke", map[string]string{"refresh": "r"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperrors.CodeServiceUnavailable, env.Data["code"])
	assert.NotContains(t, env.Detail, assert.AnError.Error())
}
