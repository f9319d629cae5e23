package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds validated environment configuration
type Config struct {
	// Required variables
	Host string
	Port string

	// HTTP ops surface (metrics + health probes)
	HTTPPort string

	// Optional variables with defaults
	GoEnv           string
	LogLevel        string
	DevelopmentMode bool
	AllowedOrigins  string

	// Game timing
	TurnTimeLimit        time.Duration
	ReconnectTimeout     time.Duration
	MaxReconnectAttempts int
	ForfeitSweepInterval time.Duration
	RematchTimeout       time.Duration

	// Rate limits (ulule format: <count>-<period>, e.g. "30-M")
	RateLimitChat string
}

// ValidateEnv validates all environment variables and returns a Config object.
// Returns an error listing every invalid or missing variable at once.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	// Required: PORT (valid port number)
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		errs = append(errs, "PORT is required")
	} else if !isValidPort(cfg.Port) {
		errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
	}

	// Optional: HOST (defaults to all interfaces)
	cfg.Host = os.Getenv("HOST")

	// Optional: HTTP_PORT for the metrics/health endpoint (defaults to 8080)
	cfg.HTTPPort = getEnvOrDefault("HTTP_PORT", "8080")
	if !isValidPort(cfg.HTTPPort) {
		errs = append(errs, fmt.Sprintf("HTTP_PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.HTTPPort))
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.DevelopmentMode = os.Getenv("DEVELOPMENT_MODE") == "true"
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	// Game timing knobs. Defaults are the protocol constants; the env
	// overrides exist for operability and tests, not for rule variants.
	cfg.TurnTimeLimit = getEnvSeconds("TURN_TIME_LIMIT", 60, &errs)
	cfg.ReconnectTimeout = getEnvSeconds("RECONNECT_TIMEOUT", 180, &errs)
	cfg.ForfeitSweepInterval = getEnvSeconds("FORFEIT_SWEEP_INTERVAL", 30, &errs)
	cfg.RematchTimeout = getEnvSeconds("REMATCH_TIMEOUT", 30, &errs)

	cfg.MaxReconnectAttempts = 2
	if v := os.Getenv("MAX_RECONNECT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("MAX_RECONNECT_ATTEMPTS must be a non-negative integer (got '%s')", v))
		} else {
			cfg.MaxReconnectAttempts = n
		}
	}

	cfg.RateLimitChat = getEnvOrDefault("RATE_LIMIT_CHAT", "30-M")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// isValidPort checks that s is a number in [1, 65535]
func isValidPort(s string) bool {
	port, err := strconv.Atoi(s)
	return err == nil && port >= 1 && port <= 65535
}

// getEnvSeconds reads a positive integer number of seconds, recording a
// validation error on bad input
func getEnvSeconds(key string, def int, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s must be a positive integer number of seconds (got '%s')", key, v))
		return time.Duration(def) * time.Second
	}
	return time.Duration(n) * time.Second
}

// logValidatedConfig logs the validated configuration
func logValidatedConfig(cfg *Config) {
	slog.Info("✅ Environment configuration validated successfully")
	slog.Info("Configuration",
		"host", cfg.Host,
		"port", cfg.Port,
		"http_port", cfg.HTTPPort,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"development_mode", cfg.DevelopmentMode,
		"turn_time_limit", cfg.TurnTimeLimit,
		"reconnect_timeout", cfg.ReconnectTimeout,
		"max_reconnect_attempts", cfg.MaxReconnectAttempts,
		"forfeit_sweep_interval", cfg.ForfeitSweepInterval,
		"rate_limit_chat", cfg.RateLimitChat,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
