package redis

// Package redis provides Redis-backed adapters.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/ports"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "escola:session:"

// maxMutateAttempts bounds optimistic-transaction retries when concurrent
// requests of the same browser race on one key.
const maxMutateAttempts = 8

var errMutateContended = errors.New("session mutation contended")

// SessionStore keeps sessions as JSON strings with a TTL matching ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a Redis session store. An empty prefix uses DefaultKeyPrefix.
func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }

func decode(data string) (domainauth.Session, error) {
	var sess domainauth.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}
	return decode(data)
}

// Mutate performs a WATCH/MULTI read-modify-write on the session key, retrying
// when another writer touched the key between read and exec.
func (s *SessionStore) Mutate(ctx context.Context, id string, fn ports.SessionMutation) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, errors.New("session ID cannot be empty")
	}
	key := s.key(id)

	var out domainauth.Session
	txf := func(tx *redis.Tx) error {
		sess := domainauth.Session{ID: id}
		exists := false
		data, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			if sess, err = decode(data); err != nil {
				return err
			}
			exists = true
		}

		if err := fn(&sess, exists); err != nil {
			return err
		}
		sess.ID = id

		ttl := sess.ExpiresAt.Sub(s.now())
		if sess.IsEmpty() || ttl <= 0 {
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, key)
				return nil
			})
		} else {
			var blob []byte
			if blob, err = json.Marshal(sess); err != nil {
				return fmt.Errorf("marshal session: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, key, blob, ttl)
				return nil
			})
		}
		if err != nil {
			return err
		}
		out = sess
		return nil
	}

	for range maxMutateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domainauth.Session{}, err
		}
		return out, nil
	}
	return domainauth.Session{}, errMutateContended
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(id)).Err()
}
