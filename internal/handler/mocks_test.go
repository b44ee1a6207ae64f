package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/service"
	"github.com/Payphone-Digital/accounts/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.Setup(); err != nil {
		panic(err)
	}
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) ObtainPair(ctx context.Context, login, password string, device service.DeviceInfo) (*service.TokenPair, *model.User, error) {
	args := m.Called(ctx, login, password, device)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockTokens) Refresh(ctx context.Context, refresh string) (string, error) {
	args := m.Called(ctx, refresh)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Revoke(ctx context.Context, refresh string) error {
	return m.Called(ctx, refresh).Error(0)
}

func (m *MockTokens) Verify(ctx context.Context, token string) (*service.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.ProfileResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProfileResponse), args.Error(1)
}

func (m *MockAccounts) GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProfileResponse), args.Error(1)
}

func (m *MockAccounts) ListUsers(ctx context.Context, params constants.PaginationParams) ([]dto.UserResponse, int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]dto.UserResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccounts) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProfileResponse), args.Error(1)
}

func (m *MockAccounts) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	return m.Called(ctx, userID, oldPassword, newPassword).Error(0)
}

func (m *MockAccounts) RequestEmailVerification(ctx context.Context, userID uint, email string) (string, error) {
	args := m.Called(ctx, userID, email)
	return args.String(0), args.Error(1)
}

func (m *MockAccounts) ConfirmEmailVerification(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

type MockPasswordResets struct {
	mock.Mock
}

func (m *MockPasswordResets) RequestReset(ctx context.Context, identity string) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockPasswordResets) VerifyResetCode(ctx context.Context, code, email string) error {
	return m.Called(ctx, code, email).Error(0)
}

func (m *MockPasswordResets) ConfirmReset(ctx context.Context, code, password string) error {
	return m.Called(ctx, code, password).Error(0)
}

// envelope is the decoded response body.
type envelope struct {
	Status string                 `json:"status"`
	Detail string                 `json:"detail"`
	Data   map[string]interface{} `json:"data"`
}

func perform(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// asUser stands in for RequireAuth.
func asUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.GinKeyUserID, id)
		c.Set(constants.GinKeyClaims, &service.Claims{UserID: id})
		c.Next()
	}
}
