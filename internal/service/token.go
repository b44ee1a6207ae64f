package service

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	IsSuperuser bool   `json:"is_superuser"`
	IsStaff     bool   `json:"is_staff"`
	DeviceID    string `json:"device_id,omitempty"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// Blacklist remembers revoked token ids until the token expires.
type Blacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// DeviceInfo comes from the Device-Id, Device-Type and Device-Token headers.
type DeviceInfo struct {
	ID    string
	Type  string
	Token string
}

type TokenPair struct {
	Access  string
	Refresh string
}

type TokenService struct {
	cfg       config.JWTConfig
	users     *repository.UserRepository
	devices   *repository.DeviceRepository
	audit     *repository.AuditRepository
	blacklist Blacklist
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewTokenService(
	cfg config.JWTConfig,
	users *repository.UserRepository,
	devices *repository.DeviceRepository,
	audit *repository.AuditRepository,
	blacklist Blacklist,
	m *metrics.Metrics,
) *TokenService {
	return &TokenService{
		cfg:       cfg,
		users:     users,
		devices:   devices,
		audit:     audit,
		blacklist: blacklist,
		metrics:   m,
		now:       time.Now,
	}
}

// ObtainPair authenticates login (username, email or phone) and password and
// issues an access and refresh token.
func (s *TokenService) ObtainPair(ctx context.Context, login, password string, device DeviceInfo) (*TokenPair, *model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ObtainPair")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	start := time.Now()
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Event(constants.EventTokenObtained, "failure")
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsActive || !CheckPassword(user, password) {
		logger.InfoWithContext(ctx, "Login rejected").
			Uint("user_id", user.ID).
			Bool("is_active", user.IsActive).
			Log()
		s.metrics.Event(constants.EventTokenObtained, "failure")
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user, device.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign tokens").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.WarnWithContext(ctx, "Failed to update last login").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}
	user.LastLogin = &now

	if device.ID != "" {
		if err := s.devices.Upsert(ctx, &model.UserDevice{
			UserID:      user.ID,
			DeviceID:    device.ID,
			DeviceType:  device.Type,
			DeviceToken: device.Token,
		}); err != nil {
			logger.WarnWithContext(ctx, "Failed to register device").
				Uint("user_id", user.ID).
				String("device_id", device.ID).
				Err(err).
				Log()
		}
	}

	s.record(ctx, user.ID, constants.EventTokenObtained, map[string]interface{}{"device_id": device.ID})
	s.metrics.Event(constants.EventTokenObtained, "success")

	logger.InfoWithContext(ctx, "Token pair issued").
		Uint("user_id", user.ID).
		Duration(time.Since(start)).
		Log()

	return pair, user, nil
}

// Refresh returns a new access token for a valid, unrevoked refresh token.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Refresh")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	claims, err := s.parse(ctx, refresh, constants.TokenTypeRefresh)
	if err != nil {
		s.metrics.Event("token_refreshed", "failure")
		return "", err
	}

	access, err := s.sign(s.newClaims(claims.UserID, claims.Username, claims.Name, claims.IsSuperuser, claims.IsStaff, claims.DeviceID, constants.TokenTypeAccess, s.cfg.AccessLifetime))
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.metrics.Event("token_refreshed", "success")
	logger.DebugWithContext(ctx, "Access token refreshed").
		Uint("user_id", claims.UserID).
		Log()
	return access, nil
}

// Revoke blacklists the refresh token until it would expire.
func (s *TokenService) Revoke(ctx context.Context, refresh string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Revoke")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	claims, err := s.parse(ctx, refresh, constants.TokenTypeRefresh)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.blacklist.Add(ctx, claims.ID, ttl); err != nil {
		logger.ErrorWithContext(ctx, "Failed to blacklist token").
			Uint("user_id", claims.UserID).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrServiceUnavailable, err)
	}

	s.record(ctx, claims.UserID, constants.EventTokenRevoked, map[string]interface{}{"jti": claims.ID})
	s.metrics.TokenRevoked()
	logger.InfoWithContext(ctx, "Refresh token revoked").
		Uint("user_id", claims.UserID).
		Log()
	return nil
}

// Verify accepts any unexpired, unrevoked token of either type.
func (s *TokenService) Verify(ctx context.Context, token string) (*Claims, error) {
	return s.parse(ctx, token, "")
}

// Authenticate accepts access tokens only. Used by the auth middleware.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	return s.parse(ctx, token, constants.TokenTypeAccess)
}

func (s *TokenService) issuePair(user *model.User, deviceID string) (*TokenPair, error) {
	refresh, err := s.sign(s.newClaims(user.ID, user.Username, user.FullName(), user.IsSuperuser, user.IsStaff, deviceID, constants.TokenTypeRefresh, s.cfg.RefreshLifetime))
	if err != nil {
		return nil, err
	}
	access, err := s.sign(s.newClaims(user.ID, user.Username, user.FullName(), user.IsSuperuser, user.IsStaff, deviceID, constants.TokenTypeAccess, s.cfg.AccessLifetime))
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) newClaims(userID uint, username, name string, superuser, staff bool, deviceID, tokenType string, lifetime time.Duration) *Claims {
	now := s.now()
	return &Claims{
		UserID:      userID,
		Username:    username,
		Name:        name,
		IsSuperuser: superuser,
		IsStaff:     staff,
		DeviceID:    deviceID,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
}

func (s *TokenService) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

// parse checks signature, expiry and token type when wantType is set. Only
// refresh tokens are ever blacklisted, so access tokens skip the lookup.
func (s *TokenService) parse(ctx context.Context, raw, wantType string) (*Claims, error) {
	if raw == "" {
		return nil, apperrors.ErrTokenRequired
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		logger.DebugWithContext(ctx, "Token rejected").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	if wantType != "" && claims.TokenType != wantType {
		return nil, apperrors.ErrInvalidToken
	}

	if claims.ID != "" && claims.TokenType != constants.TokenTypeAccess {
		revoked, err := s.blacklist.Contains(ctx, claims.ID)
		if err != nil {
			logger.ErrorWithContext(ctx, "Blacklist lookup failed").
				Err(err).
				Log()
			return nil, apperrors.WrapError(apperrors.ErrServiceUnavailable, err)
		}
		if revoked {
			s.metrics.BlacklistHit()
			return nil, apperrors.ErrInvalidToken
		}
	}

	return claims, nil
}

func (s *TokenService) record(ctx context.Context, userID uint, event string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	// audit failures never fail the request
	_ = s.audit.Record(ctx, userID, event, metadata)
}
