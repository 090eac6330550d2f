package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "typ" claim. Verification pins the expected
// kind so a long-lived refresh token can never be replayed as an access
// token or vice versa.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokenClaims is the payload shared by both token kinds: subject (account
// id), email and role, plus the registered issued-at/expiry claims.
type TokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Kind  string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly signed access/refresh token pair with the
// expiry of each.
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// TokenService signs and verifies HS256 tokens under a single process-wide
// secret injected at construction. Only HS256 is ever accepted; tokens
// declaring any other algorithm fail verification.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a TokenService. Rotating the secret is an
// operational concern: a new instance with a different key invalidates
// everything signed by the old one.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs an access and a refresh token sharing subject/email/role
// but with their own lifetimes.
func (s *TokenService) IssuePair(subject, email, role string) (TokenPair, error) {
	now := s.now().UTC()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.sign(subject, email, role, TokenKindAccess, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(subject, email, role, TokenKindRefresh, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

func (s *TokenService) sign(subject, email, role, kind string, iat, exp time.Time) (string, error) {
	// A random jti makes every signed token unique even for the same
	// subject within the same second; the session unique key relies on it.
	jti, err := NewOpaqueID()
	if err != nil {
		return "", err
	}
	claims := TokenClaims{
		Email: email,
		Role:  role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token of the expected kind. Any failure at
// all (wrong shape, wrong algorithm, bad signature, expired, wrong kind)
// yields nil so callers treat every rejection uniformly; distinguishing
// malformed from expired to a client would be an oracle.
func (s *TokenService) Verify(token, kind string) *TokenClaims {
	claims := &TokenClaims{}
	tok, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil
	}
	return claims
}
