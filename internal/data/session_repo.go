package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/escolafut/escola-api/internal/data/pgxutil"
	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	apperrors "github.com/escolafut/escola-api/internal/errors"
	"github.com/escolafut/escola-api/internal/ports"
)

// SessionRepo stores sessions in the sessions table as JSON blobs.
//
// Mutations of one id are serialized with a transaction-scoped advisory lock
// keyed on the id's hash, which also covers ids with no row yet.
type SessionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewSessionRepoWithTimeProvider creates a SessionRepo with a custom clock (useful for testing).
func NewSessionRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: tp}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readSession(ctx context.Context, q queryRower, query, id string) (domainauth.Session, error) {
	var blob []byte
	if err := q.QueryRowContext(ctx, query, id).Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("read session: %w", apperrors.MapDBError(err))
	}
	var sess domainauth.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (domainauth.Session, error) {
	return readSession(ctx, r.DB, `SELECT data FROM sessions WHERE id = $1`, id)
}

func (r *SessionRepo) Mutate(ctx context.Context, id string, fn ports.SessionMutation) (domainauth.Session, error) {
	var out domainauth.Session
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
			return fmt.Errorf("lock session: %w", apperrors.MapDBError(err))
		}

		sess, err := readSession(ctx, tx, `SELECT data FROM sessions WHERE id = $1`, id)
		exists := err == nil
		if err != nil && !errors.Is(err, ports.ErrSessionNotFound) {
			return err
		}
		if !exists {
			sess = domainauth.Session{ID: id}
		}

		if err := fn(&sess, exists); err != nil {
			return err
		}
		sess.ID = id

		if sess.IsEmpty() {
			if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
				return fmt.Errorf("delete session: %w", apperrors.MapDBError(err))
			}
			out = sess
			return nil
		}

		blob, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		const upsert = `INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`
		if _, err := tx.ExecContext(ctx, upsert, id, blob, sess.ExpiresAt); err != nil {
			return fmt.Errorf("save session: %w", apperrors.MapDBError(err))
		}
		out = sess
		return nil
	}})
	if err != nil {
		return domainauth.Session{}, err
	}
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// DeleteExpired removes up to batchSize expired sessions and returns how many were removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	const q = `DELETE FROM sessions WHERE id IN (
	SELECT id FROM sessions WHERE expires_at <= $1 ORDER BY expires_at LIMIT $2
)`
	res, err := r.DB.ExecContext(ctx, q, r.timeProvider.Now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: rows affected: %w", err)
	}
	return n, nil
}
