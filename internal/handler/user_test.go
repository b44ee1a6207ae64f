package handler

import (
	"net/http"
	"testing"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type userRig struct {
	accounts *MockAccounts
	resets   *MockPasswordResets
	router   *gin.Engine
}

func newUserRig(userID uint) *userRig {
	rig := &userRig{accounts: new(MockAccounts), resets: new(MockPasswordResets)}
	h := NewUserHandler(rig.accounts, rig.resets)

	r := gin.New()
	r.POST("/users", h.Register)
	r.GET("/users/verify_email", h.RequestEmailVerification)
	r.POST("/users/verify_email", h.ConfirmEmailVerification)
	r.POST("/users/reset_password", h.ResetPassword)
	r.POST("/users/reset_password_verify", h.ResetPasswordVerify)
	r.POST("/users/reset_password_confirm", h.ResetPasswordConfirm)

	authed := r.Group("", asUser(userID))
	authed.GET("/users", h.List)
	authed.GET("/users/me", h.Me)
	authed.PUT("/users/me", h.UpdateMe)
	authed.POST("/users/change_password", h.ChangePassword)
	authed.GET("/users/:id", h.Get)
	authed.GET("/users/:id/profile", h.Profile)

	rig.router = r
	return rig
}

func TestUserHandler_Register(t *testing.T) {
	rig := newUserRig(0)
	rig.accounts.On("Register", mock.Anything, mock.MatchedBy(func(req *dto.RegisterRequest) bool {
		return req.Email == "ada@example.com" && req.Username == "ada"
	})).Return(&dto.ProfileResponse{ID: 1, FirstName: "Ada"}, nil)

	w, env := perform(t, rig.router, http.MethodPost, "/users", map[string]interface{}{
		"username": "ada",
		"email":    "ada@example.com",
		"password": "Str0ng!pass",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, constants.MsgRegistered, env.Detail)
	assert.Equal(t, "Ada", env.Data["first_name"])
	rig.accounts.AssertExpectations(t)
}

func TestUserHandler_RegisterValidation(t *testing.T) {
	rig := newUserRig(0)

	w, env := perform(t, rig.router, http.MethodPost, "/users", map[string]interface{}{
		"username": "not valid!",
		"email":    "nope",
		"phone":    "abc",
		"password": "x",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeValidation, env.Data["code"])
	errs, ok := env.Data["errors"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "username")
		assert.Contains(t, errs, "phone")
	}
	rig.accounts.AssertNotCalled(t, "Register")
}

func TestUserHandler_RegisterDuplicateAndWeakPassword(t *testing.T) {
	rig := newUserRig(0)
	rig.accounts.On("Register", mock.Anything, mock.MatchedBy(func(req *dto.RegisterRequest) bool {
		return req.Email == "taken@example.com"
	})).Return(nil, apperrors.ErrEmailExists)
	rig.accounts.On("Register", mock.Anything, mock.MatchedBy(func(req *dto.RegisterRequest) bool {
		return req.Email == "weak@example.com"
	})).Return(nil, apperrors.WithDetails(apperrors.ErrWeakPassword, apperrors.ErrWeakPassword.Message, []string{"This password is too short."}))

	w, env := perform(t, rig.router, http.MethodPost, "/users", map[string]interface{}{
		"email": "taken@example.com", "password": "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrEmailExists.Message, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users", map[string]interface{}{
		"email": "weak@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrWeakPassword.Message, env.Detail)
	assert.Equal(t, []interface{}{"This password is too short."}, env.Data["errors"])
}

func TestUserHandler_List(t *testing.T) {
	rig := newUserRig(1)
	users := []dto.UserResponse{{ID: 1, Username: "ada"}, {ID: 2, Username: "bob"}}
	rig.accounts.On("ListUsers", mock.Anything, constants.PaginationParams{
		Page: 2, Limit: 2, Offset: 2, Search: "a",
	}).Return(users, int64(5), nil)

	w, env := perform(t, rig.router, http.MethodGet, "/users?page=2&limit=2&search=a", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgUsersFetched, env.Detail)
	assert.EqualValues(t, 5, env.Data["total"])
	assert.EqualValues(t, 2, env.Data["page"])
	assert.EqualValues(t, 3, env.Data["page_total"])
	assert.Len(t, env.Data["results"], 2)
}

func TestUserHandler_GetAndProfile(t *testing.T) {
	rig := newUserRig(1)
	rig.accounts.On("GetProfile", mock.Anything, uint(4)).Return(&dto.ProfileResponse{ID: 4}, nil)
	rig.accounts.On("GetProfile", mock.Anything, uint(9)).Return(nil, apperrors.ErrUserNotFound)

	w, env := perform(t, rig.router, http.MethodGet, "/users/4", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgProfileFetched, env.Detail)

	w, env = perform(t, rig.router, http.MethodGet, "/users/4/profile", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgProfileDataFetched, env.Detail)

	w, _ = perform(t, rig.router, http.MethodGet, "/users/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = perform(t, rig.router, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id must be a positive integer", env.Detail)
}

func TestUserHandler_MeAndUpdateMe(t *testing.T) {
	rig := newUserRig(3)
	rig.accounts.On("GetProfile", mock.Anything, uint(3)).Return(&dto.ProfileResponse{ID: 3}, nil)
	rig.accounts.On("UpdateProfile", mock.Anything, uint(3), mock.MatchedBy(func(req *dto.UpdateProfileRequest) bool {
		return req.Location != nil && *req.Location == "Jakarta"
	})).Return(&dto.ProfileResponse{ID: 3, Location: "Jakarta"}, nil)

	w, env := perform(t, rig.router, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgMeFetched, env.Detail)

	w, env = perform(t, rig.router, http.MethodPut, "/users/me", map[string]string{"location": "Jakarta"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgProfileUpdated, env.Detail)
	assert.Equal(t, "Jakarta", env.Data["location"])
}

func TestUserHandler_ChangePassword(t *testing.T) {
	rig := newUserRig(3)
	rig.accounts.On("ChangePassword", mock.Anything, uint(3), "old", "N3w!password").Return(nil)
	rig.accounts.On("ChangePassword", mock.Anything, uint(3), "bad", "N3w!password").Return(apperrors.ErrWrongPassword)

	w, env := perform(t, rig.router, http.MethodPost, "/users/change_password",
		map[string]string{"old_password": "old", "new_password": "N3w!password"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgPasswordChanged, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/change_password",
		map[string]string{"old_password": "bad", "new_password": "N3w!password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrWrongPassword.Message, env.Detail)
}

func TestUserHandler_EmailVerification(t *testing.T) {
	rig := newUserRig(0)
	rig.accounts.On("RequestEmailVerification", mock.Anything, uint(0), "ada@example.com").
		Return(constants.MsgVerificationSent, nil)
	rig.accounts.On("ConfirmEmailVerification", mock.Anything, "ada@example.com", "123456").Return(nil)
	rig.accounts.On("ConfirmEmailVerification", mock.Anything, "ada@example.com", "000000").Return(apperrors.ErrCodeMismatch)

	w, env := perform(t, rig.router, http.MethodGet, "/users/verify_email?email=ada@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgVerificationSent, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/verify_email",
		map[string]string{"email": "ada@example.com", "code": "123456"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgEmailVerified, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/verify_email",
		map[string]string{"email": "ada@example.com", "code": "000000"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeMismatch.Message, env.Detail)
}

func TestUserHandler_PasswordResetFlow(t *testing.T) {
	rig := newUserRig(0)
	rig.resets.On("RequestReset", mock.Anything, "ada").Return(nil)
	rig.resets.On("RequestReset", mock.Anything, "ghost@example.com").Return(apperrors.ErrNoEligibleAccount)
	rig.resets.On("VerifyResetCode", mock.Anything, "123456", "").Return(nil)
	rig.resets.On("ConfirmReset", mock.Anything, "123456", "N3w!password").Return(nil)
	rig.resets.On("ConfirmReset", mock.Anything, "999999", "N3w!password").Return(apperrors.ErrCodeExpired)

	w, env := perform(t, rig.router, http.MethodPost, "/users/reset_password", map[string]string{"email": "ada"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgResetCodeSent, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/reset_password", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrNoEligibleAccount.Message, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/reset_password_verify", map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgResetCodeVerified, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/reset_password_confirm",
		map[string]string{"code": "123456", "password": "N3w!password"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgPasswordReset, env.Detail)

	w, env = perform(t, rig.router, http.MethodPost, "/users/reset_password_confirm",
		map[string]string{"code": "999999", "password": "N3w!password"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeExpired, env.Data["code"])

	rig.resets.AssertExpectations(t)
}

func TestUserHandler_InternalErrorsAreMasked(t *testing.T) {
	rig := newUserRig(3)
	rig.accounts.On("GetProfile", mock.Anything, uint(3)).Return(nil, assert.AnError)

	w, env := perform(t, rig.router, http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, constants.MsgInternalError, env.Detail)
}
