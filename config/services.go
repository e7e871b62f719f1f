package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSessionSweeper periodically deletes expired Postgres sessions.
	ServiceModeSessionSweeper ServiceMode = "session-sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeSessionSweeper}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)
	if strings.TrimSpace(servicesStr) == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		switch mode {
		case ServiceModeHTTP, ServiceModeSessionSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, session-sweeper)", name)
		}
	}
	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}
	return services, nil
}

const (
	minSweepInterval     = 30 * time.Second
	defaultSweepInterval = 5 * time.Minute
	defaultSweepBatch    = 500
	maxSweepBatch        = 10000
)

// SweeperConfig controls reclamation of expired session rows.
type SweeperConfig struct {
	Interval  time.Duration `env:"SESSION_SWEEP_INTERVAL"   envDefault:"5m"`
	BatchSize int           `env:"SESSION_SWEEP_BATCH_SIZE" envDefault:"500"`
}

// Sanitize keeps the interval within [30s, ttl] so expired rows are reclaimed
// within one session lifetime of expiring.
func (c *SweeperConfig) Sanitize(ttl time.Duration) {
	if c.Interval <= 0 {
		c.Interval = defaultSweepInterval
	}
	if c.Interval < minSweepInterval {
		c.Interval = minSweepInterval
	}
	if ttl > 0 && c.Interval > ttl {
		c.Interval = ttl
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultSweepBatch
	}
	if c.BatchSize > maxSweepBatch {
		c.BatchSize = maxSweepBatch
	}
}
