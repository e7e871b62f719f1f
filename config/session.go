package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects where session records are stored.
type SessionBackend string

const (
	// SessionBackendRedis stores sessions as keys with native TTL.
	SessionBackendRedis SessionBackend = "redis"
	// SessionBackendPostgres stores sessions in the sessions table, reclaimed by the sweeper.
	SessionBackendPostgres SessionBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "postgres":
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: redis, postgres)", v)
	}
}

const (
	minSessionTTL       = 5 * time.Minute
	minStoreTimeout     = 100 * time.Millisecond
	maxStoreTimeout     = 10 * time.Second
	defaultStoreTimeout = 2 * time.Second
)

// SessionConfig controls session lifetime, the session cookie and the backing store.
type SessionConfig struct {
	Backend SessionBackend `env:"SESSION_BACKEND" envDefault:"redis"`

	// TTL is the lifetime of a session without activity (sliding) or in total (fixed).
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	// Sliding extends ExpiresAt on activity.
	Sliding bool `env:"SESSION_SLIDING" envDefault:"true"`
	// TouchInterval throttles sliding-expiry writes to at most one per interval per session.
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"1m"`
	// StoreTimeout bounds every session store round trip. On timeout guards fail closed.
	StoreTimeout time.Duration `env:"SESSION_STORE_TIMEOUT" envDefault:"2s"`

	CookieName   string `env:"SESSION_COOKIE_NAME"   envDefault:"escola_session"`
	CookiePath   string `env:"SESSION_COOKIE_PATH"   envDefault:"/"`
	CookieDomain string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	// CookieSecure forces the Secure attribute. HTTPS requests get it regardless.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"escola:session:"`
}

// Sanitize applies guardrails to session configuration values.
func (c *SessionConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = SessionBackendRedis
	}
	if c.TTL < minSessionTTL {
		c.TTL = minSessionTTL
	}
	switch {
	case c.StoreTimeout <= 0:
		c.StoreTimeout = defaultStoreTimeout
	case c.StoreTimeout < minStoreTimeout:
		c.StoreTimeout = minStoreTimeout
	case c.StoreTimeout > maxStoreTimeout:
		c.StoreTimeout = maxStoreTimeout
	}
	if c.TouchInterval <= 0 || c.TouchInterval >= c.TTL {
		c.TouchInterval = c.TTL / 10
	}
	if c.CookieName = strings.TrimSpace(c.CookieName); c.CookieName == "" {
		c.CookieName = "escola_session"
	}
	if c.CookiePath = strings.TrimSpace(c.CookiePath); !strings.HasPrefix(c.CookiePath, "/") {
		c.CookiePath = "/"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "escola:session:"
	}
}
