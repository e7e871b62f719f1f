package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthServiceInterface
	Resources *service.ResourceService
	Cookies   SessionCookies
	// Configuration
	CSRFEnabled    bool
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Logger         *slog.Logger // Optional
	Metrics        statsd.Sink  // Optional
}

// NewRouter creates and configures the JSON API router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	guards := &Guards{
		Auth:    services.Auth,
		Cookies: services.Cookies,
		Logger:  logger.With("component", "auth_guard"),
		Metrics: services.Metrics,
	}
	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Cookies:      services.Cookies,
		MaxBodyBytes: services.MaxBodyBytes,
		Logger:       logger,
	}
	resourceHandlers := &ResourceHandlers{
		Svc:          services.Resources,
		MaxBodyBytes: services.MaxBodyBytes,
		Logger:       logger,
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.Auth != nil {
		registerAuthRoutes(mux, authHandlers, guards)
		if services.Resources != nil {
			registerResourceRoutes(mux, resourceHandlers, guards)
		}
	}

	mws := []func(http.Handler) http.Handler{
		Recover(logger),
		Logging(logger),
		Timeout(services.RequestTimeout),
	}
	if services.CSRFEnabled {
		mws = append(mws, CSRFProtection(CSRFConfig{CookieDomain: services.Cookies.Domain}))
	}
	return Chain(mux, mws...)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, g *Guards) {
	for _, role := range domainauth.Precedence {
		base := "/api/" + string(role)
		mux.Handle("POST "+base+"/login", h.Login(role))
		mux.Handle("POST "+base+"/logout", h.Logout(role))
		mux.Handle("GET "+base+"/me", g.Guard(role)(http.HandlerFunc(h.Me)))
	}
	mux.Handle("POST /api/guardian/refresh", g.RequireGuardian(http.HandlerFunc(h.RefreshGuardian)))
	mux.Handle("POST /api/logout", http.HandlerFunc(h.LogoutAll))
	mux.Handle("GET /api/session", http.HandlerFunc(h.Status))
}

// Student-facing resources are readable by guardians; no resource accepts
// guardian writes.
func registerResourceRoutes(mux *http.ServeMux, h *ResourceHandlers, g *Guards) {
	staff := g.Dispatch(domainauth.RoleAdmin, domainauth.RoleManager)
	anyone := g.Dispatch(domainauth.RoleAdmin, domainauth.RoleManager, domainauth.RoleGuardian)

	for _, res := range []service.Resource{service.Branches, service.Students, service.Plans, service.Payments} {
		read := staff
		if res.StudentColumn != "" {
			read = anyone
		}
		base := "/api/" + res.Name
		mux.Handle("GET "+base, read(h.List(res)))
		mux.Handle("GET "+base+"/{id}", read(h.Get(res)))
		mux.Handle("POST "+base, staff(h.Create(res)))
		mux.Handle("PUT "+base+"/{id}", staff(h.Update(res)))
		mux.Handle("DELETE "+base+"/{id}", staff(h.Delete(res)))
	}
	mux.Handle("GET /api/branches/{branchID}/students", staff(http.HandlerFunc(h.ListBranchStudents)))
}
