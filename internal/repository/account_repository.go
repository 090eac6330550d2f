package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dojosuite/membership-auth/internal/model"
)

const accountColumns = "id,email,password_hash,display_name,role,is_active,is_approved,linked_profile_id,last_login_at,created_at,updated_at"

// AccountRepo reads and writes the `accounts` table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create inserts a new account row. The email is stored case-normalized;
// a duplicate maps to ErrEmailExists via the MySQL 1062 duplicate-key code.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (id, email, password_hash, display_name, role, is_active, is_approved, linked_profile_id) VALUES (?,?,?,?,?,?,?,?)",
		a.ID, strings.ToLower(strings.TrimSpace(a.Email)), a.PasswordHash, a.DisplayName, a.Role, a.IsActive, a.IsApproved, a.LinkedProfileID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches an account by normalized email. Missing rows map to
// ErrAccountNotFound.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by its opaque id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id))
}

// SetApproval writes the (is_active, is_approved) pair that encodes the
// approval state machine. Zero affected rows means the account is gone.
func (r *AccountRepo) SetApproval(ctx context.Context, id string, active, approved bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET is_active=?, is_approved=?, updated_at=NOW() WHERE id=?",
		active, approved, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (r *AccountRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET last_login_at=?, updated_at=NOW() WHERE id=?", at, id)
	return err
}

func (r *AccountRepo) scanOne(row *sql.Row) (*model.Account, error) {
	var (
		a         model.Account
		profileID sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.Role,
		&a.IsActive, &a.IsApproved, &profileID, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if profileID.Valid {
		a.LinkedProfileID = &profileID.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}
