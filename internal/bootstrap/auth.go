package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/escolafut/escola-api/config"
	redisadapter "github.com/escolafut/escola-api/internal/adapters/redis"
	"github.com/escolafut/escola-api/internal/data"
	"github.com/escolafut/escola-api/internal/data/cryptoutil"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/ports"
	"github.com/escolafut/escola-api/internal/service"
)

// AuthConfig contains configuration for the auth services.
type AuthConfig struct {
	Session     config.SessionConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// AuthBundle groups the services built by BuildAuthServices.
type AuthBundle struct {
	Auth        *service.AuthService
	Credentials *service.CredentialService
	Sessions    *service.SessionService
	// Sweeper is set only for the Postgres backend.
	Sweeper ports.ExpiredSessionSweeper
}

// BuildSessionStore returns the session store for the configured backend.
//
//nolint:ireturn // the backend is chosen at runtime.
func BuildSessionStore(cfg AuthConfig) (ports.SessionStore, ports.ExpiredSessionSweeper, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		if cfg.DB == nil {
			return nil, nil, errors.New("postgres session backend requires a database")
		}
		repo := data.NewSessionRepo(cfg.DB)
		return repo, repo, nil
	case config.SessionBackendRedis, "":
		if cfg.RedisClient == nil {
			return nil, nil, errors.New("redis session backend requires a redis client")
		}
		return redisadapter.NewSessionStore(cfg.RedisClient, cfg.Session.KeyPrefix), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}
}

// BuildAuthServices wires credential verification and session handling.
// Credential lookups always go to Postgres.
func BuildAuthServices(cfg AuthConfig) (*AuthBundle, error) {
	if cfg.DB == nil {
		return nil, errors.New("auth services require a database")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, sweeper, err := BuildSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	creds, err := service.NewCredentialService(service.CredentialServiceOptions{
		Admins:    data.NewAdminRepo(cfg.DB),
		Managers:  data.NewManagerRepo(cfg.DB),
		Guardians: data.NewGuardianRepo(cfg.DB),
		Hasher:    cryptoutil.NewPasswordHasher(cryptoutil.Argon2Params{}),
		Logger:    logger,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}

	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:         store,
		TTL:           cfg.Session.TTL,
		Sliding:       cfg.Session.Sliding,
		TouchInterval: cfg.Session.TouchInterval,
		StoreTimeout:  cfg.Session.StoreTimeout,
		Logger:        logger,
		Metrics:       cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}

	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Credentials: creds,
		Sessions:    sessions,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	logger.Info("auth services configured",
		"session_backend", cfg.Session.Backend,
		"session_ttl", cfg.Session.TTL,
		"sliding", cfg.Session.Sliding,
	)
	return &AuthBundle{Auth: auth, Credentials: creds, Sessions: sessions, Sweeper: sweeper}, nil
}
