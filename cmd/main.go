package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/handler"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	"github.com/Payphone-Digital/accounts/internal/repository"
	"github.com/Payphone-Digital/accounts/internal/router"
	"github.com/Payphone-Digital/accounts/internal/service"
	"github.com/Payphone-Digital/accounts/pkg/cache"
	"github.com/Payphone-Digital/accounts/pkg/circuit"
	"github.com/Payphone-Digital/accounts/pkg/database"
	"github.com/Payphone-Digital/accounts/pkg/health"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/mailer"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/Payphone-Digital/accounts/pkg/redis"
	"github.com/Payphone-Digital/accounts/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	if !config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.Setup(); err != nil {
		logger.GetLogger().Fatal("Failed to register validators", zap.Error(err))
	}

	m := metrics.New()

	db, err := database.NewPostgresDB(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.Seed(db, config.App.Environment); err != nil {
		// seed data may already exist
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	}

	monitor := health.NewMonitor(30 * time.Second)
	monitor.Register("database", &health.PingChecker{
		Name: "database",
		Ping: func(ctx context.Context) error { return database.Ping(ctx, db) },
	}, true)

	// Blacklist: redis when reachable, otherwise the in-process cache.
	var blacklist service.Blacklist
	redisChecker := &health.PingChecker{Name: "redis"}
	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		} else {
			defer redisClient.Close()
			blacklist = redis.NewTokenBlacklist(redisClient, constants.CacheKeyBlacklist)
			redisChecker.Ping = redisClient.Ping
		}
	}
	if blacklist == nil {
		memory := cache.NewCache(time.Minute)
		defer memory.Close()
		blacklist = cache.NewTokenBlacklist(memory)
	}
	monitor.Register("redis", redisChecker, false)

	// Mail
	breakerHook := circuit.WithStateHook(func(name string, from, to circuit.State) {
		m.SetBreakerState(name, int(to))
		logger.GetLogger().Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	var notifier service.Notifier = mailer.Disabled{}
	if config.MailEnabled() {
		smtp := mailer.NewSMTPMailer(config.SMTP, circuit.NewBreaker("smtp", circuit.DefaultConfig(), breakerHook))
		notifier = smtp
		monitor.Register("smtp", &health.BreakerChecker{Breaker: smtp.Breaker()}, false)
	} else {
		logger.GetLogger().Info("SMTP not configured, emails are logged and dropped")
	}

	renderer, err := mailer.NewRenderer()
	if err != nil {
		logger.GetLogger().Fatal("Failed to parse mail templates", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	codeRepo := repository.NewVerificationCodeRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	uow := repository.NewUnitOfWork(db)

	// Services
	settings := service.AccountSettingsFromConfig(config.Account)
	registry := service.NewCodeRegistry(codeRepo, settings.CodeExpiry, service.WithRegistryMetrics(m))
	dispatcher := service.NewDispatcher(notifier, renderer, settings.FrontendURL, settings.CodeExpiry, m)
	policy := service.NewPasswordPolicy()

	accountService := service.NewAccountService(uow, userRepo, profileRepo, auditRepo, registry, dispatcher, policy, settings, m)
	resetService := service.NewPasswordResetService(userRepo, registry, dispatcher, policy, settings, m)
	pre, post := service.AuditHooks(auditRepo)
	resetService.OnPreReset(pre)
	resetService.OnPostReset(post)
	tokenService := service.NewTokenService(config.JWT, userRepo, deviceRepo, auditRepo, blacklist, m)

	// Handlers
	userHandler := handler.NewUserHandler(accountService, resetService)
	authHandler := handler.NewAuthHandler(tokenService)
	healthHandler := handler.NewHealthHandler(monitor, constants.AppVersion)

	jwtMiddleware := middleware.NewJWTMiddleware(tokenService)

	r := router.NewRouter(
		userHandler,
		authHandler,
		healthHandler,

		jwtMiddleware,
		m,
		config,
	).SetupRoutes()

	background, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	monitor.Start()
	defer monitor.Stop()
	go registry.RunSweeper(background, time.Hour)

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
}
