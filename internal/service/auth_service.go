// Package service holds the auth orchestration: registration, login,
// refresh rotation, logout and the admin approval transitions. Handlers stay
// thin; everything a test needs to exercise lives behind the two store
// interfaces below.
package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/dojosuite/membership-auth/internal/model"
	"github.com/dojosuite/membership-auth/internal/queue"
	"github.com/dojosuite/membership-auth/internal/repository"
	"github.com/dojosuite/membership-auth/internal/utils"
)

// AccountStore is the account persistence the flows depend on.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	SetApproval(ctx context.Context, id string, active, approved bool) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionStore is the refresh-session persistence the flows depend on.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteAllForAccount(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuditPublisher delivers audit events to an external sink.
type AuditPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

// AuthService wires the hasher, token service and stores into the auth
// flows. The audit publisher may be nil (audit disabled).
type AuthService struct {
	accounts AccountStore
	sessions SessionStore
	tokens   *utils.TokenService
	audit    AuditPublisher
}

func NewAuthService(accounts AccountStore, sessions SessionStore, tokens *utils.TokenService, audit AuditPublisher) *AuthService {
	return &AuthService{accounts: accounts, sessions: sessions, tokens: tokens, audit: audit}
}

// RegisterInput carries validated-on-entry registration fields. AutoApprove
// is reserved for system-seeded accounts and is never reachable over HTTP.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
	AutoApprove bool
}

// LoginResult is what a successful login or refresh yields.
type LoginResult struct {
	Account *model.Account
	Pair    utils.TokenPair
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// decoyHash is a well-formed password hash compared against when login finds
// no account, so the KDF runs on every attempt and response timing cannot
// reveal whether an email is registered.
var decoyHash = mustDecoyHash()

func mustDecoyHash() string {
	h, err := utils.HashPassword("login-timing-decoy")
	if err != nil {
		panic(err)
	}
	return h
}

// Register validates input shape, hashes the password and creates the
// account. No session is issued: unless auto-approved the account starts
// PENDING and cannot log in until an administrator approves it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, clientIP string) (*model.Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.DisplayName)
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role == "" {
		role = model.RoleStudent
	}
	if !emailRe.MatchString(email) || len(in.Password) < 8 || len(name) < 2 || !model.ValidRole(role) {
		return nil, ErrInvalidInput
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := utils.NewOpaqueID()
	if err != nil {
		return nil, err
	}

	a := &model.Account{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		Role:         role,
		IsActive:     true,
		IsApproved:   in.AutoApprove,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.emit(ctx, queue.ActionRegister, a.ID, "account", a.ID, clientIP)
	return a, nil
}

// Login verifies credentials and mints a session. Unknown email, inactive
// account and wrong password all collapse into ErrInvalidCredentials; the
// approval gate is checked only after the password passes.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP, clientAgent string) (*LoginResult, error) {
	a, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == repository.ErrAccountNotFound {
			utils.VerifyPassword(password, decoyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	// The password check runs before the active check so inactive and
	// unknown accounts burn the same KDF cost as a real comparison.
	if !utils.VerifyPassword(password, a.PasswordHash) || !a.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !a.IsApproved {
		return nil, ErrPendingApproval
	}

	res, err := s.mintSession(ctx, a, clientIP, clientAgent)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, a.ID, now); err != nil {
		log.Printf("auth: update last_login for %s failed: %v", a.ID, err)
	} else {
		a.LastLoginAt = &now
	}
	s.emit(ctx, queue.ActionLogin, a.ID, "account", a.ID, clientIP)
	return res, nil
}

// Refresh rotates a refresh token: verify signature and expiry, find the
// backing session by the literal token string, re-check the owner, then
// delete the old row and insert the replacement. The delete makes every
// refresh single-use; a replayed token dies at the session lookup.
//
// Delete-old and insert-new are two statements, not a transaction. A crash
// in between logs the user out, which forces a re-login but leaks nothing.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if s.tokens.Verify(rawToken, utils.TokenKindRefresh) == nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.sessions.FindByToken(ctx, rawToken)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	a, err := s.accounts.GetByID(ctx, sess.AccountID)
	if err != nil && err != repository.ErrAccountNotFound {
		return nil, err
	}
	if err == repository.ErrAccountNotFound || !a.IsActive {
		_ = s.sessions.DeleteByToken(ctx, rawToken)
		return nil, ErrAccountInactive
	}

	// Carry the original client metadata forward on the new row.
	res, err := s.rotateSession(ctx, a, sess)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, queue.ActionRefresh, a.ID, "session", sess.ID, sess.ClientIP)
	return res, nil
}

// Logout deletes the session backing a refresh token. Unknown tokens are
// fine: the caller's transport gets cleared either way.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	sess, err := s.sessions.FindByToken(ctx, rawToken)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return nil
		}
		return err
	}
	if err := s.sessions.DeleteByToken(ctx, rawToken); err != nil {
		return err
	}
	s.emit(ctx, queue.ActionLogout, sess.AccountID, "session", sess.ID, sess.ClientIP)
	return nil
}

// Approve flips a pending account to APPROVED, unblocking login.
func (s *AuthService) Approve(ctx context.Context, accountID, actorID string) (*model.Account, error) {
	return s.setApproval(ctx, accountID, actorID, true, true, queue.ActionApprove)
}

// Reject marks an account REJECTED (inactive, unapproved). Terminal until
// external reactivation.
func (s *AuthService) Reject(ctx context.Context, accountID, actorID string) (*model.Account, error) {
	return s.setApproval(ctx, accountID, actorID, false, false, queue.ActionReject)
}

// Deactivate soft-disables an approved account and revokes its outstanding
// sessions; its still-valid access tokens stop working at the middleware's
// live check.
func (s *AuthService) Deactivate(ctx context.Context, accountID, actorID string) (*model.Account, error) {
	a, err := s.setApproval(ctx, accountID, actorID, false, true, queue.ActionDeactivate)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.DeleteAllForAccount(ctx, accountID); err != nil {
		log.Printf("auth: revoke sessions for %s failed: %v", accountID, err)
	}
	return a, nil
}

// SweepExpired reaps expired session rows; run periodically from main.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) setApproval(ctx context.Context, accountID, actorID string, active, approved bool, action string) (*model.Account, error) {
	if err := s.accounts.SetApproval(ctx, accountID, active, approved); err != nil {
		return nil, err
	}
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, action, actorID, "account", accountID, "")
	return a, nil
}

func (s *AuthService) mintSession(ctx context.Context, a *model.Account, clientIP, clientAgent string) (*LoginResult, error) {
	pair, err := s.tokens.IssuePair(a.ID, a.Email, a.Role)
	if err != nil {
		return nil, err
	}
	id, err := utils.NewOpaqueID()
	if err != nil {
		return nil, err
	}
	sess := &model.Session{
		ID:           id,
		AccountID:    a.ID,
		RefreshToken: pair.RefreshToken,
		ClientIP:     clientIP,
		ClientAgent:  clientAgent,
		ExpiresAt:    pair.RefreshExpires,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &LoginResult{Account: a, Pair: pair}, nil
}

func (s *AuthService) rotateSession(ctx context.Context, a *model.Account, old *model.Session) (*LoginResult, error) {
	if err := s.sessions.DeleteByToken(ctx, old.RefreshToken); err != nil {
		return nil, err
	}
	return s.mintSession(ctx, a, old.ClientIP, old.ClientAgent)
}

// emit publishes an audit event and never lets a failure escape: auditing is
// a side effect of the primary operation, not a precondition.
func (s *AuthService) emit(ctx context.Context, action, actorID, entityType, entityID, clientIP string) {
	if s.audit == nil {
		return
	}
	ev := queue.AuditEvent{
		Action:     action,
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		ClientIP:   clientIP,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.audit.Publish(ctx, ev); err != nil {
		log.Printf("auth: audit publish (%s) failed: %v", action, err)
	}
}
