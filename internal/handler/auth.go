// Package handler implements the HTTP surface of the auth service. Handlers
// bind and sanity-check input, delegate to the service layer and translate
// typed rejections into the stable error-code vocabulary; they hold no auth
// logic of their own.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dojosuite/membership-auth/internal/config"
	"github.com/dojosuite/membership-auth/internal/middleware"
	"github.com/dojosuite/membership-auth/internal/model"
	"github.com/dojosuite/membership-auth/internal/repository"
	"github.com/dojosuite/membership-auth/internal/service"
)

// refreshCookieName is the HttpOnly cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"` // STUDENT | INSTRUCTOR (ADMIN accounts are seeded)
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// accountPart is the client view of an account. The password hash never
// appears here.
type accountPart struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Approved    bool       `json:"approved"`
	State       string     `json:"state"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type registerResp struct {
	Account       accountPart `json:"account"`
	SessionIssued bool        `json:"session_issued"`
	Message       string      `json:"message"`
}

type authResp struct {
	Account       accountPart `json:"account"`
	AccessToken   string      `json:"access_token"`
	AccessExpires time.Time   `json:"access_expires"`
}

func toAccountPart(a *model.Account) accountPart {
	return accountPart{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.DisplayName,
		Role:        a.Role,
		Approved:    a.IsApproved,
		State:       string(a.ApprovalState()),
		LastLoginAt: a.LastLoginAt,
	}
}

// Register creates an account. No session is issued: the account starts
// pending and the response says so explicitly.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.EqualFold(strings.TrimSpace(req.Role), model.RoleAdmin) {
		// Admin accounts are seeded out of band, never self-registered.
		return h.reject(c, service.ErrInvalidInput)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	a, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
		Role:        req.Role,
	}, c.RealIP())
	if err != nil {
		return h.reject(c, err)
	}
	return c.JSON(http.StatusCreated, registerResp{
		Account:       toAccountPart(a),
		SessionIssued: false,
		Message:       "registration received; an administrator must approve the account before login",
	})
}

// Login verifies credentials and, on success, returns the access token in
// the body and the refresh token as an HttpOnly cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return h.reject(c, err)
	}
	h.setRefreshCookie(c, res.Pair.RefreshToken)
	return c.JSON(http.StatusOK, authResp{
		Account:       toAccountPart(res.Account),
		AccessToken:   res.Pair.AccessToken,
		AccessExpires: res.Pair.AccessExpires,
	})
}

// Refresh rotates the presented refresh token. On any rejection the cookie
// is cleared so the client does not keep replaying a dead token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshFromRequest(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "missing refresh token", "code": "MISSING_CREDENTIALS",
		})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return h.reject(c, err)
	}
	h.setRefreshCookie(c, res.Pair.RefreshToken)
	return c.JSON(http.StatusOK, authResp{
		Account:       toAccountPart(res.Account),
		AccessToken:   res.Pair.AccessToken,
		AccessExpires: res.Pair.AccessExpires,
	})
}

// Logout deletes the presented session and clears the cookie. Idempotent:
// an unknown or already-rotated token still yields 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := h.refreshFromRequest(c)
	if raw == "" {
		h.clearRefreshCookie(c)
		return c.NoContent(http.StatusNoContent)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, raw); err != nil {
		return h.reject(c, err)
	}
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated caller's identity.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "missing bearer token", "code": "MISSING_CREDENTIALS",
		})
	}
	return c.JSON(http.StatusOK, id)
}

// ----- helpers -----

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// refreshFromRequest prefers the HttpOnly cookie and falls back to a JSON
// body for non-browser clients.
func (h *AuthHandler) refreshFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshReq
	if err := c.Bind(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Cfg.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// reject maps typed service/repository errors onto the HTTP rejection
// vocabulary. Anything unmapped is a storage or internal failure: logged
// with detail, reported to the client with none.
func (h *AuthHandler) reject(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered", "code": "EMAIL_TAKEN"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error(), "code": "INVALID_CREDENTIALS"})
	case errors.Is(err, service.ErrPendingApproval):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error(), "code": "PENDING_APPROVAL"})
	case errors.Is(err, service.ErrInvalidToken):
		h.clearRefreshCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error(), "code": "INVALID_TOKEN"})
	case errors.Is(err, service.ErrSessionNotFound):
		h.clearRefreshCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error(), "code": "SESSION_NOT_FOUND"})
	case errors.Is(err, service.ErrAccountInactive):
		h.clearRefreshCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error(), "code": "ACCOUNT_INACTIVE"})
	case errors.Is(err, repository.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	default:
		c.Logger().Errorf("auth handler: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
