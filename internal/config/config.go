package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Session  SessionConfig
	Security SecurityConfig
	Chat     ChatConfig
}

type DatabaseConfig struct {
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
	AuditDir       string   // rotating security log files
	TrustedProxies []string // CIDR ranges allowed to set forwarding headers
}

type SessionConfig struct {
	Secret           string // signs the session cookie
	CookieName       string
	IdleTimeout      time.Duration
	AbsoluteLifetime time.Duration
}

type SecurityConfig struct {
	// IP-scoped fixed-window limits, applied before any credential check.
	LoginMaxAttempts int
	LoginWindow      time.Duration
	JoinMaxAttempts  int
	JoinWindow       time.Duration

	// Per-account lockout.
	LockoutMaxAttempts int
	LockoutDuration    time.Duration

	// Minimum response latency on failed-credential paths.
	FailedLoginDelay time.Duration

	BcryptCost int
}

type ChatConfig struct {
	MaxMessageChars int
	MaxReportChars  int
	TypingWindow    time.Duration
	CleanupInterval time.Duration
	LogRetention    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "anonchat"),
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
			AuditDir:       getEnv("AUDIT_LOG_DIR", "logs"),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES"),
		},
		Session: SessionConfig{
			Secret:           sessionSecret,
			CookieName:       getEnv("SESSION_COOKIE_NAME", "anonchat_session"),
			IdleTimeout:      getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			AbsoluteLifetime: getEnvAsDuration("SESSION_ABSOLUTE_LIFETIME", 12*time.Hour),
		},
		Security: SecurityConfig{
			LoginMaxAttempts:   getEnvAsInt("RATE_LIMIT_LOGIN_ATTEMPTS", 15),
			LoginWindow:        getEnvAsDuration("RATE_LIMIT_LOGIN_WINDOW", 5*time.Minute),
			JoinMaxAttempts:    getEnvAsInt("RATE_LIMIT_JOIN_ATTEMPTS", 10),
			JoinWindow:         getEnvAsDuration("RATE_LIMIT_JOIN_WINDOW", 5*time.Minute),
			LockoutMaxAttempts: getEnvAsInt("LOCKOUT_MAX_ATTEMPTS", 5),
			LockoutDuration:    getEnvAsDuration("LOCKOUT_DURATION", 10*time.Minute),
			FailedLoginDelay:   getEnvAsDuration("FAILED_LOGIN_DELAY", 200*time.Millisecond),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		},
		Chat: ChatConfig{
			MaxMessageChars: getEnvAsInt("CHAT_MAX_MESSAGE_CHARS", 5000),
			MaxReportChars:  getEnvAsInt("CHAT_MAX_REPORT_CHARS", 10000),
			TypingWindow:    getEnvAsDuration("CHAT_TYPING_WINDOW", 3*time.Second),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			LogRetention:    getEnvAsDuration("SECURITY_LOG_RETENTION", 90*24*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum strength for the cookie-signing secret
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

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
