// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/mafiastats/internal/auth"
	"github.com/jason-s-yu/mafiastats/internal/cache"
	"github.com/jason-s-yu/mafiastats/internal/config"
	"github.com/jason-s-yu/mafiastats/internal/database"
	"github.com/jason-s-yu/mafiastats/internal/handlers"
	"github.com/jason-s-yu/mafiastats/internal/middleware"
	"github.com/jason-s-yu/mafiastats/internal/service"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	lvl, _ := cfg.Level()
	logger.SetLevel(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
	}

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		pub, err := cache.ConnectRedis(ctx, cache.Options{
			Addr:  cfg.RedisAddr,
			DB:    cfg.RedisDB,
			Queue: cfg.ScoreEventsQueue,
		})
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer pub.Close()
		opts = append(opts, service.WithEvents(pub))
	} else {
		logger.Warn("REDIS_ADDR not set, score events are not published")
	}
	svc := service.New(database.NewStore(pool), opts...)

	ttl, _ := cfg.TokenTTL()
	sessions, err := auth.NewSessions(cfg.JWTSecret, ttl)
	if err != nil {
		logger.Fatalf("sessions: %v", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}

	api := handlers.NewAPI(svc)
	var h http.Handler = api.Handler()
	h = middleware.AuthMiddleware(sessions)(h)
	h = middleware.LogMiddleware(logger)(h)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("shutdown")
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}
