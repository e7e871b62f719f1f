package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/escolafut/escola-api/config"
	"github.com/escolafut/escola-api/internal/migrate"
)

const (
	defaultConnectTimeout = 5 * time.Second
	redisClientName       = "escola-sessions"
)

// ConnectDB opens the Postgres pool shared by the credential repositories, the
// resource store and, when selected, the session store.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err = ping(ctx, cfg.ConnectTimeout, db.PingContext); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database connected",
			"host", cfg.Host,
			"port", cfg.Port,
			"database", cfg.Name,
			"max_open_conns", cfg.MaxOpenConns,
		)
	}
	return db, nil
}

// ConnectRedis dials the Redis deployment backing the session store. Command
// timeouts follow SESSION_STORE_TIMEOUT so a slow node surfaces as a store
// timeout rather than a hung request.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	opts, topology, err := sessionRedisOptions(cfg.Redis, cfg.Session)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch topology {
	case config.RedisTopologyCluster:
		client = redis.NewClusterClient(opts.Cluster())
	case config.RedisTopologySentinel:
		client = redis.NewFailoverClient(opts.Failover())
	default:
		client = redis.NewClient(opts.Simple())
	}

	pingFn := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err = ping(ctx, defaultConnectTimeout, pingFn); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if logger != nil {
		attrs := []any{
			"topology", topology,
			"addrs", strings.Join(opts.Addrs, ","),
			"key_prefix", cfg.Session.KeyPrefix,
		}
		if topology == config.RedisTopologySentinel {
			attrs = append(attrs, "master", opts.MasterName)
		}
		logger.InfoContext(ctx, "redis connected", attrs...)
	}
	return client, nil
}

// sessionRedisOptions maps the Redis and session blocks onto one set of
// universal options. Addrs only ever hold host:port, so they are safe to log.
func sessionRedisOptions(
	rc config.RedisConfig,
	sc config.SessionConfig,
) (*redis.UniversalOptions, config.RedisTopology, error) {
	topology, err := rc.Topology()
	if err != nil {
		return nil, "", err
	}

	opts := &redis.UniversalOptions{
		ClientName:   redisClientName,
		Password:     rc.Password,
		DB:           rc.DB,
		ReadTimeout:  sc.StoreTimeout,
		WriteTimeout: sc.StoreTimeout,
	}

	switch topology {
	case config.RedisTopologySentinel:
		opts.Addrs = trimAddrs(rc.SentinelNodes)
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		if strings.TrimSpace(rc.SentinelMasterName) == "" {
			return nil, "", errors.New("redis sentinel configuration requires a master name")
		}
		opts.MasterName = rc.SentinelMasterName
		opts.SentinelPassword = rc.SentinelPassword
		return opts, topology, nil

	case config.RedisTopologyCluster:
		opts.Addrs = trimAddrs(rc.ClusterNodes)
		if len(opts.Addrs) > 0 {
			return opts, topology, nil
		}
		// A single seed node may be given through REDIS_URI instead.
		if err = applyURI(opts, rc.URI); err != nil {
			return nil, "", err
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		return opts, topology, nil

	default:
		if err = applyURI(opts, rc.URI); err != nil {
			return nil, "", err
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		return opts, topology, nil
	}
}

// applyURI copies a host:port or redis:// URL into opts. URL credentials and
// database win over the separate REDIS_PASSWORD and REDIS_DB settings.
func applyURI(opts *redis.UniversalOptions, raw string) error {
	uri := strings.TrimSpace(raw)
	if uri == "" {
		return nil
	}
	if !config.IsRedisURL(uri) {
		opts.Addrs = []string{uri}
		return nil
	}
	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func trimAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func ping(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
