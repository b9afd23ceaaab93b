package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the explicit configuration passed to components at construction.
// Nothing in the service reads ambient global state.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
	Email    EmailConfig
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
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret             string
	TokenExpiry           time.Duration
	PasswordSalt          string
	AdminCreationPassword string
	CleanupInterval       time.Duration

	// Bootstrap credentials for the first admin account; all three must be
	// set for the bootstrap to run.
	BootstrapUsername string
	BootstrapEmail    string
	BootstrapPassword string
}

// ThrottleConfig carries the sliding-window thresholds. Backend selects the
// tracker implementation: "memory" for a single instance, "redis" for a
// shared deployment.
type ThrottleConfig struct {
	Backend   string
	RedisAddr string

	LoginWindow   time.Duration
	LoginMax      int
	AdminWindow   time.Duration
	AdminMax      int
	PublicWindow  time.Duration
	PublicMax     int
	BackstopMax   int
	BackstopWindow time.Duration

	FailedLoginRetention time.Duration
	LockoutWindow        time.Duration
	LockoutThreshold     int
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	FromName    string
}

// Load builds the configuration from the environment, reading a .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	passwordSalt := getEnv("PASSWORD_SALT", "")
	if passwordSalt == "" {
		return nil, fmt.Errorf("PASSWORD_SALT is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "kennelgate"),
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
			AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "")),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:             jwtSecret,
			TokenExpiry:           getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 30*time.Minute),
			PasswordSalt:          passwordSalt,
			AdminCreationPassword: getEnv("ADMIN_CREATION_PASSWORD", ""),
			CleanupInterval:       getEnvAsDuration("RESET_CLEANUP_INTERVAL", 1*time.Hour),

			BootstrapUsername: strings.TrimSpace(getEnv("ADMIN_USERNAME", "")),
			// Stored lowercase so the reset flow's lookups can find it.
			BootstrapEmail:    strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
			BootstrapPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Throttle: ThrottleConfig{
			Backend:   getEnv("THROTTLE_BACKEND", "memory"),
			RedisAddr: getEnv("THROTTLE_REDIS_ADDR", "localhost:6379"),

			LoginWindow:    getEnvAsDuration("THROTTLE_LOGIN_WINDOW", 5*time.Minute),
			LoginMax:       getEnvAsInt("THROTTLE_LOGIN_MAX", 5),
			AdminWindow:    getEnvAsDuration("THROTTLE_ADMIN_WINDOW", 1*time.Minute),
			AdminMax:       getEnvAsInt("THROTTLE_ADMIN_MAX", 30),
			PublicWindow:   getEnvAsDuration("THROTTLE_PUBLIC_WINDOW", 1*time.Minute),
			PublicMax:      getEnvAsInt("THROTTLE_PUBLIC_MAX", 100),
			BackstopMax:    getEnvAsInt("THROTTLE_BACKSTOP_MAX", 300),
			BackstopWindow: getEnvAsDuration("THROTTLE_BACKSTOP_WINDOW", 1*time.Minute),

			FailedLoginRetention: getEnvAsDuration("LOCKOUT_RETENTION", 1*time.Hour),
			LockoutWindow:        getEnvAsDuration("LOCKOUT_WINDOW", 15*time.Minute),
			LockoutThreshold:     getEnvAsInt("LOCKOUT_THRESHOLD", 10),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName:    getEnv("EMAIL_FROM_NAME", "Kennelgate"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSecret("JWT_SECRET", jwtSecret, env); err != nil {
		return nil, err
	}
	if err := validateSecret("PASSWORD_SALT", passwordSalt, env); err != nil {
		return nil, err
	}

	switch cfg.Throttle.Backend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("THROTTLE_BACKEND must be \"memory\" or \"redis\" (got %q)", cfg.Throttle.Backend)
	}

	return cfg, nil
}

// validateSecret enforces minimum strength for process-wide secrets.
func validateSecret(name, secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
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

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
