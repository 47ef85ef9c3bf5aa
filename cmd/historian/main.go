// cmd/historian/main.go pops score events from the Redis queue and keeps the
// player leaderboard up to date.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/mafiastats/internal/config"
	"github.com/jason-s-yu/mafiastats/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	lvl, _ := cfg.Level()
	log.SetLevel(lvl)

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.RedisDB})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := historian.New(rdb, cfg.ScoreEventsQueue, cfg.LeaderboardKey)
	if err := h.Run(ctx); err != nil {
		log.Fatalf("historian: %v", err)
	}
}
