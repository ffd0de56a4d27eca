package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Session   SessionConfig
	Admin     AdminConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// StorageConfig selects the storage collaborator. Only the URI of the
// selected driver is required.
type StorageConfig struct {
	Driver      string
	MongoURI    string
	MongoDB     string
	PostgresDSN string
}

// RedisConfig is optional; an empty Addr keeps sessions in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	JWTSecret string
	TTL       time.Duration
}

type AdminConfig struct {
	Username string
	Password string
}

// UsesDefaultPassword reports whether the seed password is the demo one.
func (a AdminConfig) UsesDefaultPassword() bool {
	return a.Password == defaultAdminPassword
}

type NotifyConfig struct {
	ResendAPIKey string
	FromEmail    string
	AdminEmail   string
}

type RateLimitConfig struct {
	Window time.Duration
}

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	// .env is optional; in production variables are set directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverMongo)),
			MongoURI:    getEnv("MONGODB_URI", ""),
			MongoDB:     getEnv("DB_NAME", "feedback"),
			PostgresDSN: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", defaultAdminUsername),
			Password: getEnv("ADMIN_PASSWORD", defaultAdminPassword),
		},
		Notify: NotifyConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("FROM_EMAIL", ""),
			AdminEmail:   getEnv("NOTIFY_EMAIL", ""),
		},
		RateLimit: RateLimitConfig{
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Session.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGODB_URI is required when STORAGE_DRIVER=mongo")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
