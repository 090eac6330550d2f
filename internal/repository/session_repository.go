package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dojosuite/membership-auth/internal/model"
)

// SessionRepo persists one row per outstanding refresh token. The literal
// signed token string is the unique lookup key; rotation deletes the old row
// and inserts the replacement as two independent statements.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row. A duplicate refresh token maps to
// ErrDuplicateToken; callers escalate it instead of overwriting.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, account_id, refresh_token, client_ip, client_agent, expires_at) VALUES (?,?,?,?,?,?)",
		s.ID, s.AccountID, s.RefreshToken, s.ClientIP, s.ClientAgent, s.ExpiresAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// FindByToken returns the live session for a refresh token. A row past its
// expiry is reported as ErrSessionNotFound: it only exists until the sweep
// and must never authenticate.
func (r *SessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, account_id, refresh_token, client_ip, client_agent, expires_at, created_at FROM sessions WHERE refresh_token=? LIMIT 1",
		token).Scan(&s.ID, &s.AccountID, &s.RefreshToken, &s.ClientIP, &s.ClientAgent, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// DeleteByToken removes a session row. Deleting a token that is already
// gone is not an error; logout and rotation stay idempotent.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE refresh_token=?", token)
	return err
}

// DeleteAllForAccount revokes every outstanding session of one account,
// e.g. when an administrator deactivates it.
func (r *SessionRepo) DeleteAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE account_id=?", accountID)
	return err
}

// DeleteExpired sweeps rows whose refresh token lifetime has passed and
// returns how many were reaped. Safe to run concurrently with rotation;
// ordinary row-level semantics are enough.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
