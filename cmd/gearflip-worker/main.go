package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"gearflip/internal/config"
	"gearflip/internal/db"
	"gearflip/internal/leaderboard"
)

// publishUpcoming publishes today's and tomorrow's challenge seeds so a
// player near midnight never sees an unpublished day.
func publishUpcoming(ctx context.Context, board leaderboard.Store, logger *slog.Logger, now time.Time) error {
	for _, day := range []time.Time{now, now.Add(24 * time.Hour)} {
		c := leaderboard.ChallengeSeed(day)
		if err := board.PublishChallenge(ctx, c); err != nil {
			return err
		}
		logger.Info("challenge published", "date", c.Date, "seed", c.Seed)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	board := leaderboard.NewPGStore(pool, logger)
	if err := board.EnsureSchema(ctx); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	if cfg.RunOnce {
		if err := publishUpcoming(ctx, board, logger, time.Now().UTC()); err != nil {
			logger.Error("publish failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	_, err = c.AddFunc(cfg.ChallengeCron, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := publishUpcoming(runCtx, board, logger, time.Now().UTC()); err != nil {
			logger.Error("challenge publish failed", "err", err)
		}
	})
	if err != nil {
		logger.Error("bad challenge schedule", "schedule", cfg.ChallengeCron, "err", err)
		os.Exit(1)
	}

	if err := publishUpcoming(ctx, board, logger, time.Now().UTC()); err != nil {
		logger.Error("initial publish failed", "err", err)
	}
	c.Start()
	logger.Info("worker started", "schedule", cfg.ChallengeCron)
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("worker shutdown")
}
