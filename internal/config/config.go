// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Profile store backends.
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreRedis     = "redis"
)

// Session minters.
const (
	MinterFirebase = "firebase"
	MinterJWT      = "jwt"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Identity provider
	ProviderName               string        `mapstructure:"PROVIDER_NAME"`
	ProviderDomain             string        `mapstructure:"PROVIDER_DOMAIN"`
	ProviderProfileURLTemplate string        `mapstructure:"PROVIDER_PROFILE_URL_TEMPLATE"`
	ProviderClientID           string        `mapstructure:"PROVIDER_CLIENT_ID"`
	ProviderClientSecret       string        `mapstructure:"PROVIDER_CLIENT_SECRET"`
	ProviderRedirectURI        string        `mapstructure:"PROVIDER_REDIRECT_URI"`
	ProviderTokenURL           string        `mapstructure:"PROVIDER_TOKEN_URL"`
	ProviderUserInfoURL        string        `mapstructure:"PROVIDER_USERINFO_URL"`
	ProviderIssuer             string        `mapstructure:"PROVIDER_ISSUER"`
	ProviderDiscoveryURL       string        `mapstructure:"PROVIDER_DISCOVERY_URL"`
	ProviderJWKSURL            string        `mapstructure:"PROVIDER_JWKS_URL"`
	ProviderAudience           string        `mapstructure:"PROVIDER_AUDIENCE"`
	ProviderTimeout            time.Duration `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`

	// Profile store
	ProfileStore      string `mapstructure:"PROFILE_STORE"`
	ProfileCollection string `mapstructure:"PROFILE_COLLECTION"`

	// Database Configuration (postgres / sqlite profile store)
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	SQLitePath        string        `mapstructure:"SQLITE_PATH"`

	// Redis profile store
	RedisURL       string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`

	// Session credential
	SessionMinter      string        `mapstructure:"SESSION_MINTER"`
	SessionJWTSecret   string        `mapstructure:"SESSION_JWT_SECRET"`
	SessionJWTIssuer   string        `mapstructure:"SESSION_JWT_ISSUER"`
	SessionJWTLifetime time.Duration `mapstructure:"SESSION_JWT_TTL_MINUTES"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
}

// FirebaseRequired reports whether any selected component talks to Firebase.
func (c *Config) FirebaseRequired() bool {
	return c.ProfileStore == StoreFirestore || c.SessionMinter == MinterFirebase
}

// Secrets returns configured values that must never be echoed back to clients.
func (c *Config) Secrets() []string {
	return []string{c.ProviderClientSecret, c.SessionJWTSecret}
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.ProviderTimeout = time.Duration(v.GetInt("PROVIDER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionJWTLifetime = time.Duration(v.GetInt("SESSION_JWT_TTL_MINUTES")) * time.Minute

	// Env vars arrive as one comma separated string
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.ProfileStore = strings.ToLower(strings.TrimSpace(cfg.ProfileStore))
	cfg.SessionMinter = strings.ToLower(strings.TrimSpace(cfg.SessionMinter))
	if cfg.ProviderAudience == "" {
		cfg.ProviderAudience = cfg.ProviderClientID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("PROVIDER_NAME", "vk")
	v.SetDefault("PROVIDER_DOMAIN", "vk.com")
	v.SetDefault("PROVIDER_PROFILE_URL_TEMPLATE", "https://vk.com/id%s")
	v.SetDefault("PROVIDER_CLIENT_ID", "")
	v.SetDefault("PROVIDER_CLIENT_SECRET", "")
	v.SetDefault("PROVIDER_REDIRECT_URI", "")
	v.SetDefault("PROVIDER_TOKEN_URL", "https://id.vk.com/oauth2/auth")
	v.SetDefault("PROVIDER_USERINFO_URL", "https://id.vk.com/oauth2/user_info")
	v.SetDefault("PROVIDER_ISSUER", "")
	v.SetDefault("PROVIDER_DISCOVERY_URL", "")
	v.SetDefault("PROVIDER_JWKS_URL", "")
	v.SetDefault("PROVIDER_AUDIENCE", "")
	v.SetDefault("PROVIDER_TIMEOUT_SECONDS", 10)

	v.SetDefault("PROFILE_STORE", StoreFirestore)
	v.SetDefault("PROFILE_COLLECTION", "users")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "identity_bridge_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("SQLITE_PATH", "identity_bridge.db")

	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_KEY_PREFIX", "profile")

	v.SetDefault("SESSION_MINTER", MinterFirebase)
	v.SetDefault("SESSION_JWT_SECRET", "")
	v.SetDefault("SESSION_JWT_ISSUER", "identity_bridge_backend")
	v.SetDefault("SESSION_JWT_TTL_MINUTES", 60)

	// Firebase
	v.SetDefault("FIREBASE_PROJECT_ID", "") // Optional
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
}

// Validate checks the cross-field requirements of the selected components.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProviderName) == "" {
		return fmt.Errorf("PROVIDER_NAME must not be empty")
	}
	if c.ProviderClientID == "" || c.ProviderClientSecret == "" {
		return fmt.Errorf("PROVIDER_CLIENT_ID and PROVIDER_CLIENT_SECRET are required")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}

	switch c.ProfileStore {
	case StoreFirestore, StorePostgres, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unsupported PROFILE_STORE %q", c.ProfileStore)
	}

	switch c.SessionMinter {
	case MinterFirebase:
	case MinterJWT:
		if c.SessionJWTSecret == "" {
			return fmt.Errorf("SESSION_JWT_SECRET is required when SESSION_MINTER=jwt")
		}
		if c.SessionJWTLifetime <= 0 {
			return fmt.Errorf("SESSION_JWT_TTL_MINUTES must be positive")
		}
	default:
		return fmt.Errorf("unsupported SESSION_MINTER %q", c.SessionMinter)
	}

	if c.FirebaseRequired() {
		if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
			return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
		}
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
