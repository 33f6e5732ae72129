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
	minJWTSecretLength = 32
	// devJWTSecret is only ever applied when APP_ENV is development.
	devJWTSecret = "dev-secret-change-me-dev-secret-change-me"
)

// Revocation backends understood by AUTH_REVOCATION_BACKEND.
const (
	RevocationBackendMemory   = "memory"
	RevocationBackendRedis    = "redis"
	RevocationBackendPostgres = "postgres"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. It is read once at startup.
type AuthConfig struct {
	JWTSecret                   string
	JWTIssuer                   string
	AccessTokenTTLMinutes       int
	RefreshTokenTTLHours        int
	BcryptCost                  int
	StoreTimeoutMillis          int
	RevocationBackend           string
	LockoutThreshold            int
	LockoutWindowMinutes        int
	RevocationPruneIntervalMins int
	BootstrapAdminSubject       string
	BootstrapAdminPassword      string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")
	secretFallback := ""
	if env == "development" {
		secretFallback = devJWTSecret
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "event-service"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                   getEnv("AUTH_JWT_SECRET", secretFallback),
			JWTIssuer:                   getEnv("AUTH_JWT_ISSUER", "event-service"),
			AccessTokenTTLMinutes:       getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLHours:        getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_HOURS", 168),
			BcryptCost:                  getEnvAsInt("AUTH_BCRYPT_COST", 12),
			StoreTimeoutMillis:          getEnvAsInt("AUTH_STORE_TIMEOUT_MS", 500),
			RevocationBackend:           strings.ToLower(getEnv("AUTH_REVOCATION_BACKEND", RevocationBackendRedis)),
			LockoutThreshold:            getEnvAsInt("AUTH_LOCKOUT_THRESHOLD", 5),
			LockoutWindowMinutes:        getEnvAsInt("AUTH_LOCKOUT_WINDOW_MINUTES", 15),
			RevocationPruneIntervalMins: getEnvAsInt("AUTH_REVOCATION_PRUNE_INTERVAL_MINUTES", 10),
			BootstrapAdminSubject:       os.Getenv("AUTH_BOOTSTRAP_ADMIN_SUBJECT"),
			BootstrapAdminPassword:      os.Getenv("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.App.Env != "development" {
		if c.Auth.JWTSecret == devJWTSecret {
			return errors.New("AUTH_JWT_SECRET must not use the development default outside development")
		}
		if len(c.Auth.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes outside development", minJWTSecretLength)
		}
	}
	switch c.Auth.RevocationBackend {
	case RevocationBackendMemory, RevocationBackendRedis, RevocationBackendPostgres:
	default:
		return fmt.Errorf("unknown AUTH_REVOCATION_BACKEND %q", c.Auth.RevocationBackend)
	}
	if c.Auth.RevocationBackend == RevocationBackendPostgres && c.Postgres.DSN == "" {
		return errors.New("AUTH_REVOCATION_BACKEND=postgres requires POSTGRES_DSN")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the lifetime of refresh tokens.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	if a.RefreshTokenTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.RefreshTokenTTLHours) * time.Hour
}

// StoreTimeout bounds every credential and revocation store lookup.
func (a AuthConfig) StoreTimeout() time.Duration {
	if a.StoreTimeoutMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(a.StoreTimeoutMillis) * time.Millisecond
}

// LockoutWindow is how long failed login attempts are remembered.
func (a AuthConfig) LockoutWindow() time.Duration {
	if a.LockoutWindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.LockoutWindowMinutes) * time.Minute
}

// RevocationPruneInterval is how often expired revocation rows are removed.
func (a AuthConfig) RevocationPruneInterval() time.Duration {
	if a.RevocationPruneIntervalMins <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.RevocationPruneIntervalMins) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
