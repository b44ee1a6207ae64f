package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/service"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Tokens is the token issuer as seen by the JWT endpoints.
type Tokens interface {
	ObtainPair(ctx context.Context, login, password string, device service.DeviceInfo) (*service.TokenPair, *model.User, error)
	Refresh(ctx context.Context, refresh string) (string, error)
	Revoke(ctx context.Context, refresh string) error
	Verify(ctx context.Context, token string) (*service.Claims, error)
}

type AuthHandler struct {
	tokens Tokens
}

func NewAuthHandler(tokens Tokens) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// Create issues an access and refresh token pair.
func (h *AuthHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Create")

	var req dto.TokenObtainRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	device := service.DeviceInfo{
		ID:    c.GetHeader(constants.HeaderDeviceID),
		Type:  c.GetHeader(constants.HeaderDeviceType),
		Token: c.GetHeader(constants.HeaderDeviceToken),
	}

	pair, user, err := h.tokens.ObtainPair(ctx, req.Login, req.Password, device)
	if err != nil {
		logger.WarnWithContext(ctx, "Token obtain failed").
			String("login", req.Login).
			Err(err).
			Log()
		respondError(c, ctx, err)
		return
	}

	logger.InfoWithContext(ctx, "Tokens created").
		Uint("user_id", user.ID).
		String("device_id", device.ID).
		Log()

	respondSuccess(c, http.StatusOK, constants.MsgTokenObtained, dto.TokenPairResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Refresh")

	var req dto.TokenRefreshRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	access, err := h.tokens.Refresh(ctx, req.Refresh)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgTokenRefreshed, dto.TokenAccessResponse{Access: access})
}

func (h *AuthHandler) Revoke(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Revoke")

	var req dto.TokenRefreshRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.tokens.Revoke(ctx, req.Refresh); err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgTokenRevoked, nil)
}

func (h *AuthHandler) Verify(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Verify")

	var req dto.TokenVerifyRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if _, err := h.tokens.Verify(ctx, req.Token); err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgTokenValid, nil)
}
