package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Account   AccountConfig
	SMTP      SMTPConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Environment string        `mapstructure:"environment"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Port        string        `mapstructure:"port"`
	LogsPath    string        `mapstructure:"logs_path"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	Issuer          string        `mapstructure:"issuer"`
	AccessLifetime  time.Duration `mapstructure:"access_lifetime"`
	RefreshLifetime time.Duration `mapstructure:"refresh_lifetime"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type RateLimitConfig struct {
	Request  int `mapstructure:"request"`
	Duration int `mapstructure:"duration"`
}

// AccountConfig holds the knobs of the verification and reset flows.
type AccountConfig struct {
	VerificationCodeExpiry   time.Duration `mapstructure:"verification_code_expiry"`
	PasswordResetLookupField string        `mapstructure:"password_reset_lookup_field"`
	RequireUsablePassword    bool          `mapstructure:"require_usable_password"`
	NoInformationLeakage     bool          `mapstructure:"no_information_leakage"`
	SendEmailOnSignup        bool          `mapstructure:"send_email_on_signup"`
	FrontendURL              string        `mapstructure:"frontend_url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func LoadConfig() (*Config, error) {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", constants.AppName),
			Environment: getEnv("APP_ENV", constants.DefaultEnvironment),
			Port:        getEnv("APP_PORT", constants.DefaultPort),
			Debug:       getEnvAsBool("APP_DEBUG", true),
			Timeout:     getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			LogsPath:    getEnv("LOGS_PATH", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "accounts_db"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "default_secret_key_change_in_production"),
			Issuer:          getEnv("JWT_ISSUER", "accounts-service"),
			AccessLifetime:  getEnvAsDuration("JWT_ACCESS_LIFETIME", 5*time.Minute),
			RefreshLifetime: getEnvAsDuration("JWT_REFRESH_LIFETIME", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Request:  getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 60),
			Duration: getEnvAsInt("RATE_LIMIT_DURATION", 60),
		},
		Account: AccountConfig{
			VerificationCodeExpiry:   getEnvAsHours("VERIFICATION_CODE_EXPIRY_TIME", 24*time.Hour),
			PasswordResetLookupField: getEnv("PASSWORD_RESET_LOOKUP_FIELD", "email"),
			RequireUsablePassword:    getEnvAsBool("REQUIRE_USABLE_PASSWORD", true),
			NoInformationLeakage:     getEnvAsBool("NO_INFORMATION_LEAKAGE", false),
			SendEmailOnSignup:        getEnvAsBool("SEND_EMAIL_ON_SIGNUP", false),
			FrontendURL:              getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("EMAIL_HOST", ""),
			Port:     getEnvAsInt("EMAIL_HOST_PORT", 587),
			User:     getEnv("EMAIL_HOST_USER", ""),
			Password: getEnv("EMAIL_HOST_PASSWORD", ""),
			From:     getEnv("DEFAULT_FROM_EMAIL", "Support <support@gmail.com>"),
			UseTLS:   getEnvAsBool("EMAIL_USE_TLS", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Account.PasswordResetLookupField {
	case "email", "username", "phone":
	default:
		return fmt.Errorf("invalid PASSWORD_RESET_LOOKUP_FIELD %q", c.Account.PasswordResetLookupField)
	}
	if c.Account.VerificationCodeExpiry <= 0 {
		return fmt.Errorf("VERIFICATION_CODE_EXPIRY_TIME must be positive")
	}
	if c.JWT.AccessLifetime <= 0 || c.JWT.RefreshLifetime <= 0 {
		return fmt.Errorf("JWT lifetimes must be positive")
	}
	if c.App.Environment == constants.EnvProduction && c.JWT.Secret == "default_secret_key_change_in_production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// MailEnabled mirrors the rule that no SMTP user means no mail is sent.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.User != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsHours accepts either a bare number of hours or a Go duration.
func getEnvAsHours(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if hours, err := strconv.Atoi(value); err == nil {
		return time.Duration(hours) * time.Hour
	}
	return getEnvAsDuration(key, defaultValue)
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
