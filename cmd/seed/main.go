package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/clinic-queue/internal/appointment"
	"github.com/hackgods/clinic-queue/internal/auth"
	"github.com/hackgods/clinic-queue/internal/config"
	"github.com/hackgods/clinic-queue/internal/db"
	"github.com/hackgods/clinic-queue/internal/logging"
)

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var slotLengths = []int{10, 15, 20, 30}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap("seed")
		boot.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.LogLevel, cfg.Env, "seed")

	count := 10
	if v := os.Getenv("SEED_PHYSICIANS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Fatal().Str("SEED_PHYSICIANS", v).Msg("SEED_PHYSICIANS must be a positive integer")
		}
		count = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	svc := appointment.NewService(appointment.NewPgRepository(pool), nil, nil, nil, logger)
	faker := gofakeit.New(0)
	now := time.Now()

	logger.Info().Int("count", count).Msg("seeding physicians")
	for i := 0; i < count; i++ {
		p, err := svc.RegisterPhysician(ctx, appointment.PhysicianInput{
			Name:                "Dr. " + faker.Name(),
			Specialization:      specializations[faker.Number(0, len(specializations)-1)],
			Email:               faker.Email(),
			WorkingStart:        fmt.Sprintf("%02d:00", faker.Number(7, 10)),
			WorkingEnd:          fmt.Sprintf("%02d:00", faker.Number(15, 19)),
			SlotDurationMinutes: slotLengths[faker.Number(0, len(slotLengths)-1)],
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("register physician")
		}

		generated, err := svc.GenerateSlots(ctx, p.ID, now)
		if err != nil {
			logger.Fatal().Err(err).Str("physician_id", p.ID.String()).Msg("generate today's slots")
		}

		token, err := auth.IssueToken(cfg.JWTSecret, p.ID, cfg.TokenTTL, now)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue token")
		}

		logger.Info().
			Str("physician_id", p.ID.String()).
			Str("name", p.Name).
			Str("hours", p.WorkingStart+"-"+p.WorkingEnd).
			Int("slot_minutes", p.SlotDurationMinutes).
			Bool("slots_generated", generated).
			Msg("physician seeded")
		fmt.Printf("%s\t%s\t%s\n", p.ID, p.Email, token)
	}

	logger.Info().Msg("seed complete")
}
