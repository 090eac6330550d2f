// Package router registers the HTTP routes of the auth service.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dojosuite/membership-auth/internal/config"
	"github.com/dojosuite/membership-auth/internal/handler"
	"github.com/dojosuite/membership-auth/internal/middleware"
	"github.com/dojosuite/membership-auth/internal/model"
	"github.com/dojosuite/membership-auth/internal/utils"
)

// Register wires every route. The credential endpoints under /v1/auth are
// unauthenticated but rate-limited; /v1/me requires a bearer token; the
// moderation endpoints additionally require the ADMIN role.
func Register(e *echo.Echo, a *handler.AuthHandler,
	tokens *utils.TokenService, accounts middleware.AccountSource, rdb *redis.Client) {

	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	g.POST("/logout", a.Logout)

	authed := e.Group("/v1")
	authed.Use(middleware.Authenticate(tokens, accounts))
	authed.GET("/me", a.Me)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/accounts/:id/approve", a.Approve)
	admin.POST("/accounts/:id/reject", a.Reject)
	admin.POST("/accounts/:id/deactivate", a.Deactivate)
}
