package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojosuite/membership-auth/internal/middleware"
	"github.com/dojosuite/membership-auth/internal/model"
	"github.com/dojosuite/membership-auth/internal/repository"
	"github.com/dojosuite/membership-auth/internal/utils"
)

type accountSourceStub struct {
	accounts map[string]*model.Account
}

func (s *accountSourceStub) GetByID(_ context.Context, id string) (*model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}

func authFixture(t *testing.T) (*utils.TokenService, *accountSourceStub, echo.HandlerFunc) {
	t.Helper()
	tokens := utils.NewTokenService("test-secret", 2*time.Hour, 30*24*time.Hour)
	src := &accountSourceStub{accounts: map[string]*model.Account{}}
	next := func(c echo.Context) error {
		id, _ := middleware.IdentityFrom(c)
		return c.JSON(http.StatusOK, id)
	}
	return tokens, src, next
}

func invoke(t *testing.T, tokens *utils.TokenService, src *accountSourceStub, next echo.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := middleware.Authenticate(tokens, src)(next)(c)
	require.NoError(t, err)
	return rec
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	tokens, src, next := authFixture(t)
	rec := invoke(t, tokens, src, next, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_CREDENTIALS")
}

func TestAuthenticate_NotBearer(t *testing.T) {
	tokens, src, next := authFixture(t)
	rec := invoke(t, tokens, src, next, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_CREDENTIALS")
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	tokens, src, next := authFixture(t)
	rec := invoke(t, tokens, src, next, "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestAuthenticate_RefreshTokenRejectedAsAccess(t *testing.T) {
	tokens, src, next := authFixture(t)
	src.accounts["acct-1"] = &model.Account{ID: "acct-1", IsActive: true}
	pair, err := tokens.IssuePair("acct-1", "a@b.co", model.RoleStudent)
	require.NoError(t, err)

	rec := invoke(t, tokens, src, next, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestAuthenticate_DeactivatedAccount(t *testing.T) {
	// A still-valid access token must stop working once the account is
	// deactivated; this is the live check that compensates for access
	// tokens being stateless.
	tokens, src, next := authFixture(t)
	src.accounts["acct-1"] = &model.Account{ID: "acct-1", IsActive: false}
	pair, err := tokens.IssuePair("acct-1", "a@b.co", model.RoleStudent)
	require.NoError(t, err)

	rec := invoke(t, tokens, src, next, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCOUNT_INACTIVE")
}

func TestAuthenticate_DeletedAccount(t *testing.T) {
	tokens, src, next := authFixture(t)
	pair, err := tokens.IssuePair("ghost", "g@b.co", model.RoleStudent)
	require.NoError(t, err)

	rec := invoke(t, tokens, src, next, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCOUNT_INACTIVE")
}

func TestAuthenticate_Success(t *testing.T) {
	tokens, src, next := authFixture(t)
	src.accounts["acct-1"] = &model.Account{
		ID: "acct-1", Email: "alice@example.com", DisplayName: "Alice",
		Role: model.RoleInstructor, IsActive: true, IsApproved: true,
		PasswordHash: "salt:hash",
	}
	pair, err := tokens.IssuePair("acct-1", "alice@example.com", model.RoleInstructor)
	require.NoError(t, err)

	rec := invoke(t, tokens, src, next, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
	assert.Contains(t, rec.Body.String(), "INSTRUCTOR")
	// The identity payload must never leak the password hash.
	assert.NotContains(t, rec.Body.String(), "salt:hash")
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := middleware.RequireRole(model.RoleAdmin)

	t.Run("allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		c.Set("role", model.RoleAdmin)
		require.NoError(t, mw(next)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("wrong role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		c.Set("role", model.RoleStudent)
		require.NoError(t, mw(next)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("missing role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		require.NoError(t, mw(next)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
