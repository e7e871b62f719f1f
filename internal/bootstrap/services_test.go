package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolafut/escola-api/config"
	"github.com/escolafut/escola-api/internal/service"
)

func TestValidateServiceConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.AppConfig
		wantErr bool
	}{
		{name: "nil config", wantErr: true},
		{name: "http only", cfg: &config.AppConfig{Services: "http"}},
		{name: "unknown service", cfg: &config.AppConfig{Services: "http,scheduler"}, wantErr: true},
		{
			name: "sweeper on redis",
			cfg: &config.AppConfig{
				Services: "http,session-sweeper",
				Session:  config.SessionConfig{Backend: config.SessionBackendRedis},
			},
			wantErr: true,
		},
		{
			name: "sweeper on postgres",
			cfg: &config.AppConfig{
				Services: "session-sweeper",
				Session:  config.SessionConfig{Backend: config.SessionBackendPostgres},
			},
		},
		{
			name: "conflicting redis topology",
			cfg: &config.AppConfig{
				Services: "http",
				Session:  config.SessionConfig{Backend: config.SessionBackendRedis},
				Redis:    config.RedisConfig{UseCluster: true, UseSentinel: true},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfigWarnings(t *testing.T) {
	assert.Empty(t, ConfigWarnings(nil))

	postgresHTTPOnly := &config.AppConfig{
		Services: "http",
		Session:  config.SessionConfig{Backend: config.SessionBackendPostgres},
		HTTP:     config.HTTPConfig{CSRFEnabled: true},
	}
	warnings := ConfigWarnings(postgresHTTPOnly)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "session-sweeper")

	withSweeper := *postgresHTTPOnly
	withSweeper.Services = "http,session-sweeper"
	assert.Empty(t, ConfigWarnings(&withSweeper))

	redisBacked := &config.AppConfig{
		Services: "http",
		Session:  config.SessionConfig{Backend: config.SessionBackendRedis},
		HTTP:     config.HTTPConfig{CSRFEnabled: true},
	}
	assert.Empty(t, ConfigWarnings(redisBacked))

	noCSRF := *redisBacked
	noCSRF.HTTP.CSRFEnabled = false
	assert.Equal(t, []string{"HTTP_CSRF_ENABLED=false outside development"}, ConfigWarnings(&noCSRF))

	noCSRF.IsDev = true
	assert.Empty(t, ConfigWarnings(&noCSRF))
}

func TestGetEnabledServices(t *testing.T) {
	assert.Empty(t, GetEnabledServices(nil))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Equal(t, []string{"http", "session-sweeper"},
		GetEnabledServices(&config.AppConfig{Services: "session-sweeper, http"}))
}

func TestNewServices_Postgres(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.AppConfig{
		Services: "http,session-sweeper",
		Session:  config.SessionConfig{Backend: config.SessionBackendPostgres, TTL: time.Hour},
		Sweeper:  config.SweeperConfig{Interval: time.Minute, BatchSize: 100},
	}
	svcs, err := NewServices(&ServiceDeps{Config: cfg, DB: db, Logger: quietLogger})
	require.NoError(t, err)
	assert.NotNil(t, svcs.Auth)
	assert.NotNil(t, svcs.Resources)
	assert.NotNil(t, svcs.Sweeper)
	assert.Nil(t, svcs.Observability.Sink())

	h := BuildHTTPHandler(&HTTPServerConfig{Config: cfg, Services: svcs, Logger: quietLogger})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewServices_RequiresConfig(t *testing.T) {
	_, err := NewServices(nil)
	assert.Error(t, err)
}

type countingSweeper struct{ calls atomic.Int64 }

func (c *countingSweeper) DeleteExpired(context.Context, int) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestRunServices_StopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{}
	svc, err := service.NewSessionSweeperService(service.SessionSweeperServiceOptions{
		Sweeper: sweeper,
		Config:  config.SweeperConfig{Interval: time.Hour, BatchSize: 10},
		Logger:  quietLogger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServices(ctx, &ServiceOrchestrationConfig{
			Config:   &config.AppConfig{Services: "session-sweeper"},
			Services: ServiceContainer{Sweeper: svc},
		}, quietLogger)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("services did not stop after cancel")
	}
}

func TestShutdownHTTPServer_IdleServer(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{Server: &http.Server{}, Logger: quietLogger}))
}
