package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-queue/internal/appointment"
	"github.com/hackgods/clinic-queue/internal/config"
	"github.com/hackgods/clinic-queue/internal/db"
	"github.com/hackgods/clinic-queue/internal/logging"
	redisclient "github.com/hackgods/clinic-queue/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap("slot-pregen")
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.LogLevel, cfg.Env, "slot-pregen")
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Int("days", cfg.PregenDays).
		Msg("slot-pregen starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4, MinConns: 1})
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Generation invalidates cached free-slot lists, so the cache is wired when Redis is there.
	var cache appointment.FreeSlotCache
	if cfg.RedisEnabled() {
		rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			PoolSize: 2,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, cached slot lists expire by TTL")
		} else {
			defer func() { _ = rdb.Close() }()
			cache = redisclient.NewSlotCache(rdb, cfg.SlotCacheTTL)
		}
	}

	repo := appointment.NewPgRepository(pgPool)
	svc := appointment.NewService(repo, nil, cache, nil, logger)

	runOnce(rootCtx, svc, cfg.PregenDays, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping slot-pregen")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.PregenDays, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, days int, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	summary, err := svc.GenerateUpcoming(runCtx, start, days)
	if err != nil {
		logger.Error().Err(err).Msg("pre-generation run error")
		return
	}
	logger.Info().
		Int("physicians", summary.Physicians).
		Int("generated_days", summary.Generated).
		Int("failures", summary.Failures).
		Dur("took", time.Since(start)).
		Msg("pre-generation run complete")
}
