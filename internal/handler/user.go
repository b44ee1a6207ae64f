package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Accounts covers registration, profiles, password change and email
// verification.
type Accounts interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.ProfileResponse, error)
	GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error)
	ListUsers(ctx context.Context, params constants.PaginationParams) ([]dto.UserResponse, int64, error)
	UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	RequestEmailVerification(ctx context.Context, userID uint, email string) (string, error)
	ConfirmEmailVerification(ctx context.Context, email, code string) error
}

// PasswordResets is the three step reset flow.
type PasswordResets interface {
	RequestReset(ctx context.Context, identity string) error
	VerifyResetCode(ctx context.Context, code, email string) error
	ConfirmReset(ctx context.Context, code, password string) error
}

type UserHandler struct {
	accounts Accounts
	resets   PasswordResets
}

func NewUserHandler(accounts Accounts, resets PasswordResets) *UserHandler {
	return &UserHandler{accounts: accounts, resets: resets}
}

func (h *UserHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Register")

	var req dto.RegisterRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	profile, err := h.accounts.Register(ctx, &req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusCreated, constants.MsgRegistered, profile)
}

// List is staff only.
func (h *UserHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "List")

	params := constants.ParsePaginationParams(c)
	users, total, err := h.accounts.ListUsers(ctx, params)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	pageTotal := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	respondSuccess(c, http.StatusOK, constants.MsgUsersFetched,
		constants.BuildListResponse(total, params.Page, pageTotal, users))
}

func (h *UserHandler) Get(c *gin.Context) {
	h.profileByID(c, "Get", constants.MsgProfileFetched)
}

func (h *UserHandler) Profile(c *gin.Context) {
	h.profileByID(c, "Profile", constants.MsgProfileDataFetched)
}

func (h *UserHandler) profileByID(c *gin.Context, function, detail string) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", function)

	id, err := parseID(c)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	profile, err := h.accounts.GetProfile(ctx, id)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, detail, profile)
}

func (h *UserHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Me")

	userID, _ := middleware.CurrentUserID(c)
	profile, err := h.accounts.GetProfile(ctx, userID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgMeFetched, profile)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateMe")

	var req dto.UpdateProfileRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	profile, err := h.accounts.UpdateProfile(ctx, userID, &req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgProfileUpdated, profile)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ChangePassword")

	var req dto.ChangePasswordRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	if err := h.accounts.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgPasswordChanged, nil)
}

// RequestEmailVerification serves GET verify_email. Anonymous callers name
// the account with ?email=.
func (h *UserHandler) RequestEmailVerification(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "RequestEmailVerification")

	userID, _ := middleware.CurrentUserID(c)
	detail, err := h.accounts.RequestEmailVerification(ctx, userID, c.Query("email"))
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, detail, nil)
}

// ConfirmEmailVerification serves POST verify_email.
func (h *UserHandler) ConfirmEmailVerification(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ConfirmEmailVerification")

	var req dto.VerifyEmailRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.accounts.ConfirmEmailVerification(ctx, req.Email, req.Code); err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgEmailVerified, nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.resets.RequestReset(ctx, req.Email); err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgResetCodeSent, nil)
}

func (h *UserHandler) ResetPasswordVerify(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPasswordVerify")

	var req dto.ResetPasswordVerifyRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.resets.VerifyResetCode(ctx, req.Code, req.Email); err != nil {
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgResetCodeVerified, nil)
}

func (h *UserHandler) ResetPasswordConfirm(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPasswordConfirm")

	var req dto.ResetPasswordConfirmRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.resets.ConfirmReset(ctx, req.Code, req.Password); err != nil {
		logger.InfoWithContext(ctx, "Password reset confirm rejected").
			Err(err).
			Log()
		respondError(c, ctx, err)
		return
	}

	respondSuccess(c, http.StatusOK, constants.MsgPasswordReset, nil)
}
