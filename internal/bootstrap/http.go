package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/escolafut/escola-api/config"
	httpx "github.com/escolafut/escola-api/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router for the configured services.
func BuildHTTPHandler(cfg *HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Resources: cfg.Services.Resources,
		Cookies: httpx.SessionCookies{
			Name:   appCfg.Session.CookieName,
			Path:   appCfg.Session.CookiePath,
			Domain: appCfg.Session.CookieDomain,
			// Plain-HTTP cookies are only acceptable in development.
			Secure: appCfg.Session.CookieSecure || !appCfg.IsDev,
		},
		CSRFEnabled:    appCfg.HTTP.CSRFEnabled,
		RequestTimeout: appCfg.HTTP.RequestTimeout,
		MaxBodyBytes:   appCfg.HTTP.MaxBodyBytes,
		Logger:         logger,
		Metrics:        cfg.Services.Observability.Sink(),
	}
	if cfg.Services.Auth != nil {
		services.Auth = cfg.Services.Auth.Auth
	}
	return httpx.NewRouter(services)
}

// NewHTTPServer creates the HTTP server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	addr := ""
	var readHeaderTimeout time.Duration
	if cfg.Config != nil {
		addr = cfg.Config.HTTP.Addr
		readHeaderTimeout = cfg.Config.HTTP.ReadHeaderTimeout
	}
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}

	return &http.Server{
		Addr:              addr,
		Handler:           BuildHTTPHandler(cfg),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWaitTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
