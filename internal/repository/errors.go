// Package repository persists accounts and sessions over database/sql.
// Sentinel errors let the service and handler layers map storage outcomes
// to typed rejections without inspecting driver error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when registration collides with an existing
// account email (case-insensitive). Surfaced as HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrAccountNotFound is returned when no account row matches the lookup.
var ErrAccountNotFound = errors.New("account not found")

// ErrSessionNotFound is returned when no live session row matches the
// presented refresh token. Expired rows report this too: they may exist
// transiently between sweeps but must never authenticate.
var ErrSessionNotFound = errors.New("session not found")

// ErrDuplicateToken is returned when a session insert collides on the
// refresh token unique key. With 256-bit HMAC signatures this should be
// impossible; it is escalated rather than silently overwritten.
var ErrDuplicateToken = errors.New("refresh token already exists")
