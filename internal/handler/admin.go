package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dojosuite/membership-auth/internal/middleware"
	"github.com/dojosuite/membership-auth/internal/model"
)

// Approve flips a pending account to APPROVED so it can log in.
func (h *AuthHandler) Approve(c echo.Context) error {
	return h.moderate(c, h.Auth.Approve)
}

// Reject marks an account rejected. Terminal until external reactivation.
func (h *AuthHandler) Reject(c echo.Context) error {
	return h.moderate(c, h.Auth.Reject)
}

// Deactivate soft-disables an approved account and revokes its sessions.
func (h *AuthHandler) Deactivate(c echo.Context) error {
	return h.moderate(c, h.Auth.Deactivate)
}

func (h *AuthHandler) moderate(c echo.Context, fn func(ctx context.Context, accountID, actorID string) (*model.Account, error)) error {
	actor, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "missing bearer token", "code": "MISSING_CREDENTIALS",
		})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account id required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	a, err := fn(ctx, id, actor.ID)
	if err != nil {
		return h.reject(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"account": toAccountPart(a)})
}
