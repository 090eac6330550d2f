package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojosuite/membership-auth/internal/model"
)

func newSessionMock(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionRepo(db), mock
}

func sessionRows(s *model.Session) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "account_id", "refresh_token", "client_ip", "client_agent", "expires_at", "created_at",
	}).AddRow(s.ID, s.AccountID, s.RefreshToken, s.ClientIP, s.ClientAgent, s.ExpiresAt, s.CreatedAt)
}

func TestSessionRepo_Create(t *testing.T) {
	repo, mock := newSessionMock(t)
	exp := time.Now().UTC().Add(30 * 24 * time.Hour)

	mock.ExpectExec("INSERT INTO sessions (id, account_id, refresh_token, client_ip, client_agent, expires_at) VALUES (?,?,?,?,?,?)").
		WithArgs("sess-1", "acct-1", "tok-1", "203.0.113.7", "agent/1.0", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Session{
		ID: "sess-1", AccountID: "acct-1", RefreshToken: "tok-1",
		ClientIP: "203.0.113.7", ClientAgent: "agent/1.0", ExpiresAt: exp,
	})
	assert.NoError(t, err)
}

func TestSessionRepo_Create_DuplicateTokenEscalates(t *testing.T) {
	repo, mock := newSessionMock(t)

	mock.ExpectExec("INSERT INTO sessions (id, account_id, refresh_token, client_ip, client_agent, expires_at) VALUES (?,?,?,?,?,?)").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry for key 'sessions.refresh_token'"))

	err := repo.Create(context.Background(), &model.Session{ID: "sess-2", RefreshToken: "tok-1"})
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestSessionRepo_FindByToken(t *testing.T) {
	repo, mock := newSessionMock(t)
	want := &model.Session{
		ID: "sess-1", AccountID: "acct-1", RefreshToken: "tok-1",
		ClientIP: "203.0.113.7", ClientAgent: "agent/1.0",
		ExpiresAt: time.Now().UTC().Add(time.Hour), CreatedAt: time.Now().UTC(),
	}

	mock.ExpectQuery("SELECT id, account_id, refresh_token, client_ip, client_agent, expires_at, created_at FROM sessions WHERE refresh_token=? LIMIT 1").
		WithArgs("tok-1").
		WillReturnRows(sessionRows(want))

	got, err := repo.FindByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", got.AccountID)
	assert.Equal(t, "203.0.113.7", got.ClientIP)
}

func TestSessionRepo_FindByToken_ExpiredRowIsAbsent(t *testing.T) {
	repo, mock := newSessionMock(t)
	stale := &model.Session{
		ID: "sess-1", AccountID: "acct-1", RefreshToken: "tok-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute), CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	mock.ExpectQuery("SELECT id, account_id, refresh_token, client_ip, client_agent, expires_at, created_at FROM sessions WHERE refresh_token=? LIMIT 1").
		WithArgs("tok-1").
		WillReturnRows(sessionRows(stale))

	_, err := repo.FindByToken(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepo_FindByToken_Missing(t *testing.T) {
	repo, mock := newSessionMock(t)

	mock.ExpectQuery("SELECT id, account_id, refresh_token, client_ip, client_agent, expires_at, created_at FROM sessions WHERE refresh_token=? LIMIT 1").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepo_DeleteByToken_Idempotent(t *testing.T) {
	repo, mock := newSessionMock(t)

	mock.ExpectExec("DELETE FROM sessions WHERE refresh_token=?").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteByToken(context.Background(), "tok-1"))
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	repo, mock := newSessionMock(t)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at < UTC_TIMESTAMP()").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSessionRepo_DeleteAllForAccount(t *testing.T) {
	repo, mock := newSessionMock(t)

	mock.ExpectExec("DELETE FROM sessions WHERE account_id=?").
		WithArgs("acct-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, repo.DeleteAllForAccount(context.Background(), "acct-1"))
}
