package model

import "time"

// Session mirrors the `sessions` table: one row per outstanding refresh
// token. The signed refresh token string itself is the unique lookup key, so
// a row exists exactly until the token is rotated, revoked or swept. Expired
// rows may linger between sweeps but are treated as absent on lookup.
type Session struct {
	ID           string
	AccountID    string
	RefreshToken string
	ClientIP     string
	ClientAgent  string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the session's refresh token is past its lifetime.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
