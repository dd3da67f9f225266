package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/lockout"
	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/aussiebroadwan/synapse/pkg/otpx"
	"github.com/joho/godotenv"
)

// Revocation backends.
const (
	RevocationNone   = "none"
	RevocationSQLite = "sqlite"
	RevocationRedis  = "redis"
)

type Config struct {
	Issuer string // Optional: issuer claim for tokens (default: synapse-auth)

	Algorithm      string // Optional: JWT signing algorithm (HS256, EdDSA) (default: EdDSA)
	JWTSecret      string // Required for HS256: shared signing secret, at least 32 bytes
	SigningKeyFile string // Optional: Ed25519 PKCS8 PEM, generated if missing (default: ./signing_key.pem)

	TokenTTL        time.Duration // Optional: session token lifetime (default: 7d)
	LockoutAttempts int           // Optional: failed attempts before the account locks (default: 5)
	LockoutDuration time.Duration // Optional: how long a lock lasts (default: 2h)
	TOTPSkew        int           // Optional: accepted 30s steps either side of now (default: 2)
	BackupCodeCount int           // Optional: backup codes per setup (default: 10)
	MFAIssuer       string        // Optional: issuer shown in authenticator apps (default: Synapse)

	DatabaseFile      string   // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile        string   // Optional: path to file containing pepper for password hashing (default: ./pepper)
	RevocationBackend string   // Optional: token denylist (none, sqlite, redis) (default: none)
	RedisURL          string   // Required for the redis backend
	CORSOrigins       []string // Optional: browser origins allowed to call the API (CLIENT_URL, comma separated)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the configuration from the environment, after loading
// a .env file from the working directory when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	defaults := service.DefaultConfig()
	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", defaults.Issuer),
		Algorithm:      getEnvOrDefault("AUTH_ALGORITHM", "EdDSA"),
		JWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
		SigningKeyFile: getEnvOrDefault("AUTH_SIGNING_KEY_FILE", "signing_key.pem"),

		TokenTTL:        getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultSessionTTL),
		LockoutAttempts: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", lockout.DefaultThreshold),
		LockoutDuration: getEnvDurationOrDefault("AUTH_LOCKOUT_DURATION", lockout.DefaultDuration),
		TOTPSkew:        getEnvIntOrDefault("AUTH_TOTP_SKEW", otpx.DefaultSkew),
		BackupCodeCount: getEnvIntOrDefault("AUTH_BACKUP_CODE_COUNT", otpx.DefaultBackupCodeCount),
		MFAIssuer:       getEnvOrDefault("AUTH_MFA_ISSUER", defaults.MFAIssuer),

		DatabaseFile:      getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:        getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		RevocationBackend: strings.ToLower(getEnvOrDefault("AUTH_REVOCATION_BACKEND", RevocationNone)),
		RedisURL:          os.Getenv("REDIS_URL"),
		CORSOrigins:       getEnvListOrDefault("CLIENT_URL", nil),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}, nil
}

// ServiceConfig returns the validated settings the services run with.
func (c Config) ServiceConfig() (service.Config, error) {
	if c.TOTPSkew < 0 {
		return service.Config{}, errors.New("config: AUTH_TOTP_SKEW must not be negative")
	}
	sc := service.Config{
		Issuer:   c.Issuer,
		TokenTTL: c.TokenTTL,
		Lockout: lockout.Policy{
			Threshold: c.LockoutAttempts,
			Duration:  c.LockoutDuration,
		},
		TOTPSkew:        uint(c.TOTPSkew),
		MFAIssuer:       c.MFAIssuer,
		BackupCodeCount: c.BackupCodeCount,
	}
	if err := sc.Validate(); err != nil {
		return service.Config{}, fmt.Errorf("config: %w", err)
	}
	return sc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated variable, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
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
	return out
}
