package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/observability/metrics"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/ports"
)

const (
	sessionIDBytes      = 32
	maxSessionIDLength  = 128
	defaultSessionTTL   = 24 * time.Hour
	defaultStoreTimeout = 2 * time.Second
)

var (
	errStaleSession       = errors.New("presented session is not live")
	errSessionIDCollision = errors.New("generated session id already in use")
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store         ports.SessionStore // Required
	TTL           time.Duration      // Lifetime without activity (sliding) or in total (fixed)
	Sliding       bool
	TouchInterval time.Duration    // Minimum gap between sliding-expiry writes
	StoreTimeout  time.Duration    // Bound on every store round trip
	Now           func() time.Time // Optional: clock, defaults to time.Now
	NewID         func() (string, error)
	Logger        *slog.Logger // Optional: structured logger
	Metrics       statsd.Sink  // Optional: metrics sink (StatsD-compatible)
}

// SessionService owns the server-side session record. It is the only writer of
// identity slots.
type SessionService struct {
	store         ports.SessionStore
	ttl           time.Duration
	sliding       bool
	touchInterval time.Duration
	storeTimeout  time.Duration
	now           func() time.Time
	newID         func() (string, error)
	logger        *slog.Logger
	metrics       statsd.Sink
}

// SessionState is a loaded live session. Renewed is set when sliding expiry
// moved ExpiresAt and the cookie should be re-issued.
type SessionState struct {
	Session domainauth.Session
	Renewed bool
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}
	svc := &SessionService{
		store:         opts.Store,
		ttl:           opts.TTL,
		sliding:       opts.Sliding,
		touchInterval: opts.TouchInterval,
		storeTimeout:  opts.StoreTimeout,
		now:           opts.Now,
		newID:         opts.NewID,
		metrics:       opts.Metrics,
	}
	if svc.ttl <= 0 {
		svc.ttl = defaultSessionTTL
	}
	if svc.storeTimeout <= 0 {
		svc.storeTimeout = defaultStoreTimeout
	}
	if svc.touchInterval < 0 || svc.touchInterval >= svc.ttl {
		svc.touchInterval = svc.ttl / 10
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = NewSessionID
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svc.logger = logger.With("component", "session_service")
	return svc, nil
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration { return s.ttl }

// NewSessionID returns 256 random bits, base64url encoded without padding.
func NewSessionID() (string, error) {
	var buf [sessionIDBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// Create attaches p to the live session identified by sessionID, replacing any
// previous identity of the same role. When sessionID is empty, unknown or
// expired, a fresh session with a new id is created instead; a presented id is
// never adopted.
func (s *SessionService) Create(ctx context.Context, sessionID string, p domainauth.Principal) (domainauth.Session, error) {
	if p == nil {
		return domainauth.Session{}, errors.New("principal is required")
	}
	now := s.now()

	if validSessionID(sessionID) {
		sess, err := s.mutate(ctx, "create", sessionID, func(sess *domainauth.Session, exists bool) error {
			if !exists || sess.Expired(now) {
				return errStaleSession
			}
			sess.Attach(p)
			sess.LastSeenAt = now
			sess.ExpiresAt = now.Add(s.ttl)
			return nil
		})
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, errStaleSession) {
			return domainauth.Session{}, err
		}
		s.evict(ctx, sessionID)
	}

	id, err := s.newID()
	if err != nil {
		return domainauth.Session{}, err
	}
	return s.mutate(ctx, "create", id, func(sess *domainauth.Session, exists bool) error {
		if exists {
			return errSessionIDCollision
		}
		*sess = domainauth.Session{ID: id, CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(s.ttl)}
		sess.Attach(p)
		return nil
	})
}

// Load returns the live session for sessionID.
//
// A missing id reads as domainauth.ErrUnauthenticated and an expired one as
// domainauth.ErrSessionExpired, which wraps it. Store failures and timeouts
// return domainauth.ErrSessionBackendUnavailable.
func (s *SessionService) Load(ctx context.Context, sessionID string) (SessionState, error) {
	if !validSessionID(sessionID) {
		return SessionState{}, domainauth.ErrUnauthenticated
	}
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}
	now := s.now()
	if sess.Expired(now) {
		s.evict(ctx, sessionID)
		return SessionState{}, domainauth.ErrSessionExpired
	}
	if !s.sliding || now.Sub(sess.LastSeenAt) < s.touchInterval {
		return SessionState{Session: sess}, nil
	}

	touched, err := s.mutate(ctx, "touch", sessionID, func(cur *domainauth.Session, exists bool) error {
		if !exists || cur.Expired(now) {
			return errStaleSession
		}
		cur.LastSeenAt = now
		cur.ExpiresAt = now.Add(s.ttl)
		return nil
	})
	if errors.Is(err, errStaleSession) {
		return SessionState{}, domainauth.ErrSessionExpired
	}
	if err != nil {
		return SessionState{}, err
	}
	return SessionState{Session: touched, Renewed: true}, nil
}

// Get returns the identity stored for role. Other roles' slots are never read.
func (s *SessionService) Get(ctx context.Context, sessionID string, role domainauth.Role) (domainauth.Principal, error) {
	st, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, ok := st.Session.Identity(role)
	if !ok {
		return nil, domainauth.ErrUnauthenticated
	}
	return p, nil
}

// Destroy clears the slot for role. A session left empty is evicted. Destroying
// an absent identity is not an error.
func (s *SessionService) Destroy(ctx context.Context, sessionID string, role domainauth.Role) error {
	if !validSessionID(sessionID) {
		return nil
	}
	_, err := s.mutate(ctx, "destroy", sessionID, func(sess *domainauth.Session, exists bool) error {
		sess.Detach(role)
		return nil
	})
	return err
}

// DestroyAll evicts the whole session record.
func (s *SessionService) DestroyAll(ctx context.Context, sessionID string) error {
	if !validSessionID(sessionID) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return s.backendFailure(ctx, "destroy_all", err)
	}
	return nil
}

// RefreshGuardian replaces the linked-student set of the guardian identity held
// by the session. The caller supplies ids read from the link table.
func (s *SessionService) RefreshGuardian(
	ctx context.Context,
	sessionID, guardianID string,
	studentIDs []string,
) (*domainauth.GuardianPrincipal, error) {
	if !validSessionID(sessionID) {
		return nil, domainauth.ErrUnauthenticated
	}
	now := s.now()
	sess, err := s.mutate(ctx, "refresh_guardian", sessionID, func(sess *domainauth.Session, exists bool) error {
		if !exists || sess.Expired(now) || sess.Guardian == nil || sess.Guardian.ID != guardianID {
			return domainauth.ErrUnauthenticated
		}
		sess.Guardian.StudentIDs = append([]string{}, studentIDs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.Guardian, nil
}

func (s *SessionService) get(ctx context.Context, sessionID string) (domainauth.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return domainauth.Session{}, domainauth.ErrUnauthenticated
	}
	if err != nil {
		return domainauth.Session{}, s.backendFailure(ctx, "get", err)
	}
	return sess, nil
}

// mutate runs fn under the store's per-id atomicity. Errors returned by fn are
// passed through unchanged; anything else is a backend failure.
func (s *SessionService) mutate(
	ctx context.Context,
	op, sessionID string,
	fn ports.SessionMutation,
) (domainauth.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var fnErr error
	sess, err := s.store.Mutate(ctx, sessionID, func(sess *domainauth.Session, exists bool) error {
		fnErr = fn(sess, exists)
		return fnErr
	})
	if err == nil {
		return sess, nil
	}
	if fnErr != nil && errors.Is(err, fnErr) {
		return domainauth.Session{}, fnErr
	}
	return domainauth.Session{}, s.backendFailure(ctx, op, err)
}

// evict deletes a stale record. Failures are left to TTL or the sweeper.
func (s *SessionService) evict(ctx context.Context, sessionID string) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.logger.DebugContext(ctx, "evict expired session failed", "error", err)
	}
}

func (s *SessionService) backendFailure(ctx context.Context, op string, err error) error {
	metrics.SessionBackendError(s.metrics, op, err)
	s.logger.ErrorContext(ctx, "session store call failed", "operation", op, "error", err)
	return fmt.Errorf("%w: %s: %w", domainauth.ErrSessionBackendUnavailable, op, err)
}

func validSessionID(id string) bool {
	return id != "" && len(id) <= maxSessionIDLength
}
