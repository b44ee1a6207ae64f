package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/handler"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	"github.com/Payphone-Digital/accounts/internal/service"
	"github.com/Payphone-Digital/accounts/pkg/health"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, string) (*service.Claims, error) {
	return nil, apperrors.ErrInvalidToken
}

func newTestEngine(rateLimit int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	monitor := health.NewMonitor(0)
	monitor.Register("database", &health.PingChecker{Name: "database", Ping: func(context.Context) error { return nil }}, true)

	cfg := &config.Config{
		App:       config.AppConfig{Timeout: 5 * time.Second},
		RateLimit: config.RateLimitConfig{Request: rateLimit, Duration: 60},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	return NewRouter(
		handler.NewUserHandler(nil, nil),
		handler.NewAuthHandler(nil),
		handler.NewHealthHandler(monitor, "test"),

		middleware.NewJWTMiddleware(rejectAll{}),
		metrics.New(),
		cfg,
	).SetupRoutes()
}

func TestSetupRoutes_RegistersEndpoints(t *testing.T) {
	engine := newTestEngine(0)

	registered := map[string]bool{}
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /metrics",
		"GET /api/health",
		"GET /api/health/live",
		"POST /api/v1/auth/jwt/create",
		"POST /api/v1/auth/jwt/refresh",
		"POST /api/v1/auth/jwt/revoke",
		"POST /api/v1/auth/jwt/verify",
		"POST /api/v1/users",
		"GET /api/v1/users",
		"GET /api/v1/users/me",
		"PUT /api/v1/users/me",
		"GET /api/v1/users/:id",
		"GET /api/v1/users/:id/profile",
		"POST /api/v1/users/change_password",
		"GET /api/v1/users/verify_email",
		"POST /api/v1/users/verify_email",
		"POST /api/v1/users/reset_password",
		"POST /api/v1/users/reset_password_verify",
		"POST /api/v1/users/reset_password_confirm",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestSetupRoutes_ProtectedRoutesNeedToken(t *testing.T) {
	engine := newTestEngine(0)

	for _, path := range []string{"/api/v1/users", "/api/v1/users/me", "/api/v1/users/1"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestSetupRoutes_MetricsAndHealth(t *testing.T) {
	engine := newTestEngine(0)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestSetupRoutes_RateLimitAppliesToAPI(t *testing.T) {
	engine := newTestEngine(1)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "the root health check is not throttled")
}

func TestSetupRoutes_UnknownPathUsesEnvelope(t *testing.T) {
	engine := newTestEngine(0)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeNotFound)
}
