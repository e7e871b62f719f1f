package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
	_ ports.PasswordHasher = (*PlainHasher)(nil)
)

// MemorySessionStore is an in-memory session store for unit tests.
// Records are copied on the way in and out so callers never share slices.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte

	// Err, when set, is returned by every operation.
	Err error
	// Delay blocks every operation until it elapses or the context is done.
	Delay time.Duration
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (m *MemorySessionStore) wait(ctx context.Context) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.Err
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if err := m.wait(ctx); err != nil {
		return domainauth.Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

func (m *MemorySessionStore) load(id string) (domainauth.Session, error) {
	blob, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	var sess domainauth.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return domainauth.Session{}, err
	}
	return sess, nil
}

func (m *MemorySessionStore) Mutate(ctx context.Context, id string, fn ports.SessionMutation) (domainauth.Session, error) {
	if err := m.wait(ctx); err != nil {
		return domainauth.Session{}, err
	}
	if id == "" {
		return domainauth.Session{}, errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.load(id)
	exists := err == nil
	if !exists {
		sess = domainauth.Session{ID: id}
	}
	if err := fn(&sess, exists); err != nil {
		return domainauth.Session{}, err
	}
	sess.ID = id
	if sess.IsEmpty() {
		delete(m.sessions, id)
		return sess, nil
	}
	blob, err := json.Marshal(sess)
	if err != nil {
		return domainauth.Session{}, err
	}
	m.sessions[id] = blob
	return sess, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// PlainHasher stores secrets as "plain:<secret>" and counts Verify calls, so tests
// can assert every login path performs exactly one comparison.
type PlainHasher struct {
	verifies atomic.Int64
}

const plainPrefix = "plain:"

func (h *PlainHasher) Hash(secret string) (string, error) {
	return plainPrefix + secret, nil
}

func (h *PlainHasher) Verify(encoded, secret string) (bool, error) {
	h.verifies.Add(1)
	if !strings.HasPrefix(encoded, plainPrefix) {
		return false, errors.New("unsupported hash")
	}
	want := strings.TrimPrefix(encoded, plainPrefix)
	return subtle.ConstantTimeCompare([]byte(want), []byte(secret)) == 1, nil
}

// Verifies returns how many times Verify has been called.
func (h *PlainHasher) Verifies() int64 { return h.verifies.Load() }
