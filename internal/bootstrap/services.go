package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/escolafut/escola-api/config"
	"github.com/escolafut/escola-api/internal/data"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/service"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *AuthBundle
	Resources     *service.ResourceService
	Sweeper       *service.SessionSweeperService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Sink returns the metrics sink, or nil when metrics are disabled. A typed nil
// *statsd.Client is never returned as a non-nil interface.
//
//nolint:ireturn // callers depend on the statsd.Sink port.
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the metrics adapter.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// NewServices builds every service the enabled modes need.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := buildObservability(logger, deps.Config.Observability)

	auth, err := BuildAuthServices(AuthConfig{
		Session:     deps.Config.Session,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Metrics:     obs.Sink(),
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	resources, err := service.NewResourceService(service.ResourceServiceOptions{
		Store:   data.NewStore(deps.DB),
		Logger:  logger,
		Metrics: obs.Sink(),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("resource service: %w", err)
	}

	container := ServiceContainer{Auth: auth, Resources: resources, Observability: obs}
	if deps.Config.IsSessionSweeperEnabled() && auth.Sweeper != nil {
		container.Sweeper, err = service.NewSessionSweeperService(service.SessionSweeperServiceOptions{
			Sweeper: auth.Sweeper,
			Config:  deps.Config.Sweeper,
			Logger:  logger,
			Metrics: obs.Sink(),
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("session sweeper: %w", err)
		}
	}
	return container, nil
}

// ServiceOrchestrationConfig contains what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runServices(ctx, cfg, logger)
}

func runServices(ctx context.Context, cfg *ServiceOrchestrationConfig, logger *slog.Logger) error {
	group, gctx := errgroup.WithContext(ctx)

	if cfg.Config.IsHTTPServerEnabled() {
		server := NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		group.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down services...")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownWaitTimeout)
			defer cancel()
			return ShutdownHTTPServer(ShutdownConfig{Context: shutdownCtx, Server: server, Logger: logger})
		})
	}

	if sweeper := cfg.Services.Sweeper; sweeper != nil {
		group.Go(func() error {
			logger.Info("starting session sweeper")
			if err := sweeper.Run(gctx); err != nil {
				return fmt.Errorf("session sweeper: %w", err)
			}
			logger.Info("session sweeper stopped")
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("service error", "error", err)
		return err
	}
	return nil
}
