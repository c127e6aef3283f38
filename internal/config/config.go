package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BradenHooton/eduif/pkg/vault"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Database      DatabaseConfig
	Server        ServerConfig
	Auth          AuthConfig
	Crypto        CryptoConfig
	Audit         AuditConfig
	Seed          SeedConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Driver     string
	SQLitePath string

	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	SessionSecret           string
	SessionTTL              time.Duration
	SessionCleanupInterval  time.Duration
	CookieSecure            bool
	LockoutThreshold        int
	LoginRateLimitPerMinute int
	APIRateLimitPerMinute   int
	TimingDelayBaseMs       int
	TimingDelayRandomMs     int
}

type CryptoConfig struct {
	EncryptionKey []byte
}

type AuditConfig struct {
	Retention    int
	TrimInterval time.Duration
}

// SeedConfig names where seed identities come from. File takes precedence
// over the per-identity password variables.
type SeedConfig struct {
	File            string
	AdminPassword   string
	StaffPassword   string
	StudentPassword string
}

type ObservabilityConfig struct {
	SentryDSN string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	rawKey := getEnv("ENCRYPTION_KEY", "")
	if rawKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	encryptionKey, err := vault.ParseKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:            strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
			SQLitePath:        getEnv("SQLITE_PATH", "data/eduif.db"),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "eduif"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			SessionSecret:           sessionSecret,
			SessionTTL:              getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			SessionCleanupInterval:  getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
			CookieSecure:            getEnvAsBool("COOKIE_SECURE", env == "production"),
			LockoutThreshold:        getEnvAsInt("LOCKOUT_THRESHOLD", 3),
			LoginRateLimitPerMinute: getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
			APIRateLimitPerMinute:   getEnvAsInt("API_RATE_LIMIT_PER_MINUTE", 120),
			TimingDelayBaseMs:       getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs:     getEnvAsInt("TIMING_DELAY_RANDOM_MS", 50),
		},
		Crypto: CryptoConfig{
			EncryptionKey: encryptionKey,
		},
		Audit: AuditConfig{
			Retention:    getEnvAsInt("AUDIT_RETENTION", 1000),
			TrimInterval: getEnvAsDuration("AUDIT_TRIM_INTERVAL", 1*time.Hour),
		},
		Seed: SeedConfig{
			File:            getEnv("SEED_FILE", ""),
			AdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
			StaffPassword:   getEnv("SEED_STAFF_PASSWORD", ""),
			StudentPassword: getEnv("SEED_STUDENT_PASSWORD", ""),
		},
		Observability: ObservabilityConfig{
			SentryDSN: getEnv("SENTRY_DSN", ""),
		},
	}

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
		if cfg.Database.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want %s, %s or %s)",
			cfg.Database.Driver, DriverPostgres, DriverSQLite, DriverMemory)
	}

	if cfg.Auth.LockoutThreshold < 1 {
		return nil, fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1 (got %d)", cfg.Auth.LockoutThreshold)
	}
	if cfg.Auth.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.Auth.LoginRateLimitPerMinute < 1 || cfg.Auth.APIRateLimitPerMinute < 1 {
		return nil, fmt.Errorf("rate limits must be at least 1 request per minute")
	}
	if cfg.Audit.TrimInterval <= 0 || cfg.Auth.SessionCleanupInterval <= 0 {
		return nil, fmt.Errorf("AUDIT_TRIM_INTERVAL and SESSION_CLEANUP_INTERVAL must be positive")
	}
	if cfg.Audit.Retention < 1 {
		return nil, fmt.Errorf("AUDIT_RETENTION must be at least 1 (got %d)", cfg.Audit.Retention)
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum security standards for the signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
		"eduif-secret-key-change-in-production",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""))
	}

	if origins := splitList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
