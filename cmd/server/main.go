package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dojosuite/membership-auth/internal/config"
	"github.com/dojosuite/membership-auth/internal/database"
	"github.com/dojosuite/membership-auth/internal/handler"
	"github.com/dojosuite/membership-auth/internal/queue"
	"github.com/dojosuite/membership-auth/internal/repository"
	"github.com/dojosuite/membership-auth/internal/router"
	"github.com/dojosuite/membership-auth/internal/service"
	"github.com/dojosuite/membership-auth/internal/utils"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	accounts := repository.NewAccountRepo(db)
	sessions := repository.NewSessionRepo(db)
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	auth := service.NewAuthService(accounts, sessions, tokens, service.NewAuditQueuePublisher())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	e := echo.New()
	router.Register(e, handler.NewAuthHandler(cfg, auth), tokens, accounts, rdb)

	go queue.StartAuditConsumer()
	go sweepSessions(auth, cfg.SweepInterval)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// sweepSessions periodically reaps expired session rows so dead refresh
// tokens do not accumulate. Lookups already treat expired rows as absent;
// the sweep is hygiene, not a security boundary.
func sweepSessions(auth *service.AuthService, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := auth.SweepExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("session sweep failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("session sweep removed %d expired sessions", n)
		}
	}
}
