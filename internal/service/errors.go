package service

import "errors"

// Typed rejections surfaced by the auth flows. Handlers map these onto the
// HTTP rejection vocabulary; everything else is an internal error and must
// reach the client only as an opaque 500.
var (
	// ErrInvalidInput covers malformed email, short password or name and
	// unknown roles. Deliberately field-agnostic.
	ErrInvalidInput = errors.New("invalid email, password or name")

	// ErrInvalidCredentials is the generic login rejection for unknown
	// email, deactivated account or wrong password alike, so a caller
	// cannot probe which accounts exist or are disabled.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPendingApproval is returned only after the password has been
	// verified; at that point the caller already proved ownership of the
	// account, so being specific leaks nothing.
	ErrPendingApproval = errors.New("account pending approval")

	// ErrAccountInactive rejects requests whose otherwise-valid token
	// references a deactivated account.
	ErrAccountInactive = errors.New("account inactive")

	// ErrInvalidToken rejects tokens that fail signature, shape, kind or
	// expiry checks. Callers should clear the refresh transport.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrSessionNotFound rejects refresh tokens with no backing session:
	// already rotated, revoked, or never issued.
	ErrSessionNotFound = errors.New("session not found")
)
