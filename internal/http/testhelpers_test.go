package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/domain/model"
	mockauth "github.com/escolafut/escola-api/internal/mocks/auth"
	"github.com/escolafut/escola-api/internal/mocks/memdata"
	"github.com/escolafut/escola-api/internal/observability/metrics"
	"github.com/escolafut/escola-api/internal/ports"
	"github.com/escolafut/escola-api/internal/service"
)

const (
	branchA   = "6f1d2c3b-0000-4000-8000-00000000000a"
	branchB   = "6f1d2c3b-0000-4000-8000-00000000000b"
	planA     = "6f1d2c3b-0000-4000-8000-0000000000a1"
	planB     = "6f1d2c3b-0000-4000-8000-0000000000b1"
	studentA1 = "6f1d2c3b-0000-4000-8000-000000000a01"
	studentA2 = "6f1d2c3b-0000-4000-8000-000000000a02"
	studentB1 = "6f1d2c3b-0000-4000-8000-000000000b01"
	paymentA1 = "6f1d2c3b-0000-4000-8000-00000000ca01"
	paymentA2 = "6f1d2c3b-0000-4000-8000-00000000ca02"
	paymentB1 = "6f1d2c3b-0000-4000-8000-00000000cb01"

	testCookie = "escola_session"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeAccounts implements the three account repositories over maps.
type fakeAccounts struct {
	admins    map[string]*model.AdminAccount
	managers  map[string]*model.ManagerAccount
	guardians map[string]*model.GuardianAccount
	links     map[string][]string
}

func (f *fakeAccounts) FindAdminByEmail(_ context.Context, email string) (*model.AdminAccount, error) {
	if a, ok := f.admins[email]; ok {
		return a, nil
	}
	return nil, ports.ErrAccountNotFound
}

func (f *fakeAccounts) FindManagerByEmail(_ context.Context, email string) (*model.ManagerAccount, error) {
	if m, ok := f.managers[email]; ok {
		return m, nil
	}
	return nil, ports.ErrAccountNotFound
}

func (f *fakeAccounts) FindGuardianByEmail(_ context.Context, email string) (*model.GuardianAccount, error) {
	if g, ok := f.guardians[email]; ok {
		return g, nil
	}
	return nil, ports.ErrAccountNotFound
}

func (f *fakeAccounts) LinkedStudentIDs(_ context.Context, guardianID string) ([]string, error) {
	return append([]string{}, f.links[guardianID]...), nil
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		admins: map[string]*model.AdminAccount{
			"admin@escolafut.com": {
				ID: "adm-1", Name: "Admin", Email: "admin@escolafut.com",
				Role: "owner", Active: true, PasswordHash: "plain:admin-pass",
			},
			"retired@escolafut.com": {
				ID: "adm-2", Name: "Retired", Email: "retired@escolafut.com",
				Role: "owner", Active: false, PasswordHash: "plain:retired-pass",
			},
		},
		managers: map[string]*model.ManagerAccount{
			"gestor@escolafut.com": {
				ID: "mgr-1", Name: "Gestor", Email: "gestor@escolafut.com",
				BranchID: branchA, PasswordHash: "plain:manager-pass",
			},
		},
		guardians: map[string]*model.GuardianAccount{
			"mae@example.com": {
				ID: "grd-1", Name: "Mae", Email: "mae@example.com", PasswordHash: "plain:guardian-pass",
			},
		},
		links: map[string][]string{"grd-1": {studentA1}},
	}
}

type testEnv struct {
	t        *testing.T
	accounts *fakeAccounts
	sessions *mockauth.MemorySessionStore
	data     *memdata.Store
	metrics  *metrics.Recorder
	handler  http.Handler
}

func seedSchool(store *memdata.Store) {
	store.Seed("branches",
		model.Row{"id": branchA, "name": "Centro", "city": "Recife"},
		model.Row{"id": branchB, "name": "Norte", "city": "Olinda"},
	)
	store.Seed("plans",
		model.Row{"id": planA, "branch_id": branchA, "name": "Mensal", "monthly_fee_cents": int64(15000)},
		model.Row{"id": planB, "branch_id": branchB, "name": "Mensal", "monthly_fee_cents": int64(14000)},
	)
	store.Seed("students",
		model.Row{"id": studentA1, "branch_id": branchA, "plan_id": planA, "name": "Ana", "active": true},
		model.Row{"id": studentA2, "branch_id": branchA, "plan_id": planA, "name": "Bruno", "active": true},
		model.Row{"id": studentB1, "branch_id": branchB, "plan_id": planB, "name": "Caio", "active": true},
	)
	store.Seed("payments",
		model.Row{"id": paymentA1, "branch_id": branchA, "student_id": studentA1, "amount_cents": int64(15000), "status": "pending"},
		model.Row{"id": paymentA2, "branch_id": branchA, "student_id": studentA2, "amount_cents": int64(15000), "status": "paid"},
		model.Row{"id": paymentB1, "branch_id": branchB, "student_id": studentB1, "amount_cents": int64(14000), "status": "pending"},
	)
}

func newTestEnv(t *testing.T, mutate func(*RouterServices)) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		accounts: newFakeAccounts(),
		sessions: mockauth.NewMemorySessionStore(),
		data:     memdata.New(),
		metrics:  &metrics.Recorder{},
	}
	seedSchool(env.data)

	creds, err := service.NewCredentialService(service.CredentialServiceOptions{
		Admins:    env.accounts,
		Managers:  env.accounts,
		Guardians: env.accounts,
		Hasher:    &mockauth.PlainHasher{},
		Logger:    quietLogger,
		Metrics:   env.metrics,
	})
	require.NoError(t, err)
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:         env.sessions,
		TTL:           time.Hour,
		Sliding:       true,
		TouchInterval: time.Minute,
		StoreTimeout:  200 * time.Millisecond,
		Logger:        quietLogger,
		Metrics:       env.metrics,
	})
	require.NoError(t, err)
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Credentials: creds,
		Sessions:    sessions,
		Logger:      quietLogger,
	})
	require.NoError(t, err)
	resources, err := service.NewResourceService(service.ResourceServiceOptions{
		Store:   env.data,
		Logger:  quietLogger,
		Metrics: env.metrics,
	})
	require.NoError(t, err)

	services := RouterServices{
		Auth:      auth,
		Resources: resources,
		Cookies:   SessionCookies{Name: testCookie},
		Logger:    quietLogger,
		Metrics:   env.metrics,
	}
	if mutate != nil {
		mutate(&services)
	}
	env.handler = NewRouter(services)
	return env
}

// do sends a request with an optional JSON body and session cookie.
func (e *testEnv) do(method, path, sessionID string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = strings.NewReader(b)
		default:
			buf, err := json.Marshal(b)
			require.NoError(e.t, err)
			rdr = bytes.NewReader(buf)
		}
	}
	r := httptest.NewRequest(method, path, rdr)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		r.AddCookie(&http.Cookie{Name: testCookie, Value: sessionID})
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

// login performs a role login and returns the session id from the cookie.
func (e *testEnv) login(role domainauth.Role, sessionID, identifier, secret string) string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/"+string(role)+"/login", sessionID,
		map[string]string{"identifier": identifier, "secret": secret})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	c := sessionCookie(w)
	require.NotNil(e.t, c, "login must set the session cookie")
	return c.Value
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
