package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/appointment"
	"github.com/hackgods/clinic-queue/internal/auth"
	"github.com/hackgods/clinic-queue/internal/config"
	"github.com/hackgods/clinic-queue/internal/db"
	"github.com/hackgods/clinic-queue/internal/logging"
)

// Usage:
//
//	issue-token <email|physician-id>
//
// Prints a bearer token for an existing physician, signed with JWT_SECRET and valid for
// TOKEN_TTL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap("issue-token")
		boot.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.LogLevel, cfg.Env, "issue-token")

	if len(os.Args) != 2 || strings.TrimSpace(os.Args[1]) == "" {
		logger.Fatal().Msg("usage: issue-token <email|physician-id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	svc := appointment.NewService(appointment.NewPgRepository(pool), nil, nil, nil, logger)

	p, token, err := issue(ctx, svc, cfg.JWTSecret, cfg.TokenTTL, os.Args[1], time.Now())
	if err != nil {
		logger.Fatal().Err(err).Str("physician", os.Args[1]).Msg("issue token")
	}

	logger.Info().
		Str("physician_id", p.ID.String()).
		Dur("ttl", cfg.TokenTTL).
		Msg("token issued")
	fmt.Println(token)
}

// issue resolves who by physician id or email and signs a token for them.
func issue(ctx context.Context, svc *appointment.Service, secret string, ttl time.Duration, who string, now time.Time) (*appointment.Physician, string, error) {
	who = strings.TrimSpace(who)

	var (
		p   *appointment.Physician
		err error
	)
	if id, parseErr := uuid.Parse(who); parseErr == nil {
		p, err = svc.GetPhysician(ctx, id)
	} else {
		p, err = svc.PhysicianByEmail(ctx, who)
	}
	if err != nil {
		return nil, "", err
	}

	token, err := auth.IssueToken(secret, p.ID, ttl, now)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}
