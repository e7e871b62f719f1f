package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/escolafut/escola-api/config"
)

// InitLogger initializes the structured logger. Development mode logs at debug
// level so guard rejections are visible.
func InitLogger(isDev bool) *slog.Logger {
	level := slog.LevelInfo
	if isDev {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig validates that at least one service is enabled and
// that the session cookie is safe outside development.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	if len(services) == 0 {
		return errors.New("no services enabled")
	}
	if services[config.ServiceModeSessionSweeper] && cfg.Session.Backend != config.SessionBackendPostgres {
		return fmt.Errorf("session-sweeper requires SESSION_BACKEND=%s", config.SessionBackendPostgres)
	}
	if cfg.NeedsRedis() {
		if _, err = cfg.Redis.Topology(); err != nil {
			return fmt.Errorf("invalid redis configuration: %w", err)
		}
	}

	return nil
}

// ConfigWarnings lists settings that start cleanly but leave an operational
// gap. The caller logs each one at WARN.
func ConfigWarnings(cfg *config.AppConfig) []string {
	if cfg == nil {
		return nil
	}
	var warnings []string
	if cfg.Session.Backend == config.SessionBackendPostgres && !cfg.IsSessionSweeperEnabled() {
		warnings = append(warnings,
			"SESSION_BACKEND=postgres without session-sweeper in SERVICES: expired sessions that are never "+
				"presented again stay in the table until a process running session-sweeper (or "+
				"escola-admin sweep-sessions) removes them")
	}
	if !cfg.IsDev && cfg.IsHTTPServerEnabled() && !cfg.HTTP.CSRFEnabled {
		warnings = append(warnings, "HTTP_CSRF_ENABLED=false outside development")
	}
	return warnings
}

// GetEnabledServices returns a sorted list of enabled service names.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Return empty list on error - validation will catch this
		return []string{}
	}

	enabledServices := make([]string, 0, len(services))
	for svc, on := range services {
		if on {
			enabledServices = append(enabledServices, string(svc))
		}
	}
	sort.Strings(enabledServices)
	return enabledServices
}
