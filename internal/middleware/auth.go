// Package middleware provides request authentication, role enforcement and
// rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dojosuite/membership-auth/internal/model"
	"github.com/dojosuite/membership-auth/internal/repository"
	"github.com/dojosuite/membership-auth/internal/utils"
)

// Identity is the minimal caller view injected into the request context.
// It never carries the password hash.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// identityKey is the context key the authenticated Identity is stored under.
const identityKey = "identity"

// AccountSource is the live account lookup the middleware re-checks on
// every request.
type AccountSource interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
}

// IdentityFrom returns the Identity placed in the context by Authenticate.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// Authenticate validates the Authorization bearer token and re-fetches the
// referenced account to confirm it is still active. Access tokens are
// otherwise stateless, so this one DB round trip is what makes deactivation
// take effect before the token's natural expiry. On success the caller's
// Identity (and role, for RequireRole) is stored in the context.
func Authenticate(tokens *utils.TokenService, accounts AccountSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "missing bearer token", "code": "MISSING_CREDENTIALS",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := tokens.Verify(raw, utils.TokenKindAccess)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "invalid token", "code": "INVALID_TOKEN",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			a, err := accounts.GetByID(ctx, claims.Subject)
			if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
				c.Logger().Errorf("auth middleware: account lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if err != nil || !a.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "account inactive", "code": "ACCOUNT_INACTIVE",
				})
			}

			c.Set(identityKey, Identity{ID: a.ID, Email: a.Email, Name: a.DisplayName, Role: a.Role})
			c.Set("role", a.Role)
			return next(c)
		}
	}
}
