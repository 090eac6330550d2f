package model

import "time"

// Roles form a closed set; anything else is rejected at registration time.
const (
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleStudent    = "STUDENT"
)

// ApprovalState is the derived view of the (is_active, is_approved) pair on
// an account row. REJECTED doubles as the administratively deactivated state;
// both are terminal until an external reactivation.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "PENDING"
	ApprovalApproved ApprovalState = "APPROVED"
	ApprovalRejected ApprovalState = "REJECTED"
)

// Account mirrors the `accounts` table. IDs are opaque 128-bit hex strings.
// PasswordHash holds `salt_hex:hash_hex` and must never be serialized to a
// client; response types live in the handler package and omit it.
type Account struct {
	ID              string
	Email           string
	PasswordHash    string
	DisplayName     string
	Role            string
	IsActive        bool
	IsApproved      bool
	LinkedProfileID *string
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ApprovalState derives the tri-state view from the two booleans.
func (a *Account) ApprovalState() ApprovalState {
	switch {
	case a.IsActive && a.IsApproved:
		return ApprovalApproved
	case a.IsActive:
		return ApprovalPending
	default:
		return ApprovalRejected
	}
}

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}
