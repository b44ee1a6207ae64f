package router

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/handler"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/gin-gonic/gin"
)

type Router struct {
	userHandler   *handler.UserHandler
	authHandler   *handler.AuthHandler
	healthHandler *handler.HealthHandler

	jwtMw   *middleware.JWTMiddleware
	metrics *metrics.Metrics
	Config  *config.Config
}

func NewRouter(
	user *handler.UserHandler,
	auth *handler.AuthHandler,
	health *handler.HealthHandler,

	jwtMw *middleware.JWTMiddleware,
	m *metrics.Metrics,
	config *config.Config,
) *Router {
	return &Router{
		userHandler:   user,
		authHandler:   auth,
		healthHandler: health,

		jwtMw:   jwtMw,
		metrics: m,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.ContextMiddleware(r.Config.App.Timeout))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.CORS(r.Config.CORS))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(constants.MsgNotFound, apperrors.CodeNotFound, nil))
	})

	if r.metrics != nil {
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)
		api.GET("/health/live", r.healthHandler.BasicHealth)

		v1 := api.Group("/v1")
		{
			limiter := middleware.NewRateLimiter(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second)
			v1.Use(middleware.RateLimit(limiter, r.metrics))

			v1.GET("/health", r.healthHandler.HealthCheck)

			r.authRoutes(v1)
			r.userRoutes(v1)
		}
	}

	return router
}
