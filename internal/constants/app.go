package constants

// Application Information
const (
	AppName    = "accounts-service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const (
	CacheKeyPrefix    = "accounts:"
	CacheKeyBlacklist = CacheKeyPrefix + "token:blacklist:"
)
