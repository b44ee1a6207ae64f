package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/service"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Authenticator is satisfied by *service.TokenService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Claims, error)
}

type JWTMiddleware struct {
	auth Authenticator
}

func NewJWTMiddleware(auth Authenticator) *JWTMiddleware {
	return &JWTMiddleware{auth: auth}
}

// RequireAuth rejects the request unless it carries a valid access token.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "middleware", "RequireAuth")

		token, ok := bearerToken(c)
		if !ok {
			logger.WarnWithContext(ctx, "Missing or malformed Authorization header").
				Path(c.Request.URL.Path).
				Method(c.Request.Method).
				Log()
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				constants.BuildErrorResponse(constants.MsgUnauthorized, apperrors.CodeAuthenticationFailed, nil))
			return
		}

		claims, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			logger.WarnWithContext(ctx, "Token rejected").
				Path(c.Request.URL.Path).
				Err(err).
				Log()
			c.AbortWithStatusJSON(apperrors.ToHTTPStatus(err),
				constants.BuildErrorResponse(apperrors.GetErrorMessage(err), apperrors.GetErrorCode(err), nil))
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and otherwise
// lets the request through anonymously.
func (m *JWTMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.DebugWithContext(c.Request.Context(), "Ignoring invalid optional token").
				Err(err).
				Log()
			c.Next()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// RequireStaff must run after RequireAuth.
func (m *JWTMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok || !(claims.IsStaff || claims.IsSuperuser) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				constants.BuildErrorResponse(constants.MsgForbidden, apperrors.CodeAuthenticationFailed, nil))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader(constants.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, claims *service.Claims) {
	c.Set(constants.GinKeyUserID, claims.UserID)
	c.Set(constants.GinKeyUsername, claims.Username)
	c.Set(constants.GinKeyIsStaff, claims.IsStaff)
	c.Set(constants.GinKeyClaims, claims)
	c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), claims.UserID))
}

// CurrentUserID is 0, false for anonymous requests.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(constants.GinKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func CurrentClaims(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(constants.GinKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}
