package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// GormConfig returns the gorm settings shared by the postgres connection and
// the sqlite databases used in tests.
func GormConfig(environment string) *gorm.Config {
	var dbLogger gormLogger.Interface
	switch environment {
	case constants.EnvProduction:
		dbLogger = gormLogger.Default.LogMode(gormLogger.Silent)
	case constants.EnvStaging:
		dbLogger = gormLogger.Default.LogMode(gormLogger.Warn)
	default:
		dbLogger = gormLogger.Default.LogMode(gormLogger.Info)
	}

	return &gorm.Config{
		Logger: dbLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:              true,
		TranslateError:           true,
		DisableNestedTransaction: false,
	}
}

// NewPostgresDB opens the connection pool and verifies it with a ping.
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	start := time.Now()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DatabaseConnectionString(),
	}), GormConfig(cfg.App.Environment))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected").
		String("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		String("database", cfg.Database.Name).
		Int("max_open_conns", cfg.Database.MaxOpenConns).
		Int("max_idle_conns", cfg.Database.MaxIdleConns).
		Duration(time.Since(start)).
		Log()

	return db, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance for closing: %w", err)
		}

		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}

// Ping is used by the health endpoint.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
