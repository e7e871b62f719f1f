package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/escolafut/escola-api/internal/data"
	mockauth "github.com/escolafut/escola-api/internal/mocks/auth"
)

var (
	t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type sessionFixture struct {
	store *mockauth.MemorySessionStore
	clock *data.FixedTimeProvider
	svc   *SessionService
}

func newSessionFixture(t *testing.T, mutate func(*SessionServiceOptions)) *sessionFixture {
	t.Helper()
	store := mockauth.NewMemorySessionStore()
	clock := data.NewFixedTimeProvider(t0)
	opts := SessionServiceOptions{
		Store:         store,
		TTL:           time.Hour,
		Sliding:       true,
		TouchInterval: time.Minute,
		StoreTimeout:  200 * time.Millisecond,
		Now:           clock.Now,
		Logger:        quietLogger,
	}
	if mutate != nil {
		mutate(&opts)
	}
	svc, err := NewSessionService(opts)
	require.NoError(t, err)
	return &sessionFixture{store: store, clock: clock, svc: svc}
}
