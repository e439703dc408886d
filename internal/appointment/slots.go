package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateSlots creates the free slots of one day for a physician. It is idempotent: when the
// day already has slots, or a concurrent caller inserted them first, it returns false and no
// error. Past dates are accepted.
func (s *Service) GenerateSlots(ctx context.Context, physicianID uuid.UUID, date time.Time) (bool, error) {
	date = DateOf(date)

	generated, err := s.repo.GenerateSlots(ctx, physicianID, date, PlanSlots)
	if err != nil {
		s.metrics.ObserveGeneration("error")
		return false, fmt.Errorf("generate slots: %w", err)
	}

	day := FormatDate(date)
	if !generated {
		s.metrics.ObserveGeneration("exists")
		return false, nil
	}

	s.metrics.ObserveGeneration("generated")
	s.invalidateFreeSlots(ctx, physicianID, day)
	s.logEvent(ctx, nil, EventSlotsGenerated, map[string]any{
		"physician_id": physicianID.String(),
		"date":         day,
	})
	s.log.Info().
		Str("physician_id", physicianID.String()).
		Str("date", day).
		Msg("slots generated")

	return true, nil
}

// ListFreeSlots returns the unclaimed slots of a day ordered by time.
func (s *Service) ListFreeSlots(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Slot, error) {
	date = DateOf(date)
	day := FormatDate(date)

	version, cacheable := s.freeSlotsVersion(ctx, physicianID, day)
	if cacheable {
		if cached, ok := s.cachedFreeSlots(ctx, physicianID, day, version); ok {
			return cached, nil
		}
	}

	slots, err := s.repo.ListFreeSlots(ctx, physicianID, date)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}

	if cacheable {
		if data, err := json.Marshal(slots); err == nil {
			if err := s.cache.Set(ctx, physicianID, day, version, data); err != nil {
				s.log.Warn().Err(err).Str("physician_id", physicianID.String()).Str("date", day).Msg("cache free slots")
			}
		}
	}

	return slots, nil
}

// PregenSummary reports one pass of GenerateUpcoming.
type PregenSummary struct {
	Physicians int
	Generated  int
	Failures   int
}

// GenerateUpcoming runs GenerateSlots for every physician for `days` consecutive dates starting
// at from. Failures are logged and counted; the pass continues.
func (s *Service) GenerateUpcoming(ctx context.Context, from time.Time, days int) (PregenSummary, error) {
	physicians, err := s.repo.ListPhysicians(ctx)
	if err != nil {
		return PregenSummary{}, fmt.Errorf("list physicians: %w", err)
	}

	summary := PregenSummary{Physicians: len(physicians)}
	start := DateOf(from)
	for _, p := range physicians {
		for i := 0; i < days; i++ {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			day := start.AddDate(0, 0, i)
			generated, err := s.GenerateSlots(ctx, p.ID, day)
			if err != nil {
				summary.Failures++
				s.log.Warn().Err(err).
					Str("physician_id", p.ID.String()).
					Str("date", FormatDate(day)).
					Msg("pre-generate slots")
				continue
			}
			if generated {
				summary.Generated++
			}
		}
	}
	return summary, nil
}

// freeSlotsVersion reads the day's cache version. false means the cache is off or unreachable
// and the read goes straight to the store.
func (s *Service) freeSlotsVersion(ctx context.Context, physicianID uuid.UUID, day string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Version(ctx, physicianID, day)
	if err != nil {
		s.log.Warn().Err(err).Str("physician_id", physicianID.String()).Str("date", day).Msg("read free slot cache version")
		return 0, false
	}
	return v, true
}

func (s *Service) cachedFreeSlots(ctx context.Context, physicianID uuid.UUID, day string, version int64) ([]Slot, bool) {
	data, ok, err := s.cache.Get(ctx, physicianID, day, version)
	if err != nil {
		s.log.Warn().Err(err).Str("physician_id", physicianID.String()).Str("date", day).Msg("read free slot cache")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var slots []Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		s.log.Warn().Err(err).Str("physician_id", physicianID.String()).Str("date", day).Msg("decode free slot cache")
		return nil, false
	}
	return slots, true
}

func (s *Service) invalidateFreeSlots(ctx context.Context, physicianID uuid.UUID, day string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, physicianID, day); err != nil {
		s.log.Warn().Err(err).Str("physician_id", physicianID.String()).Str("date", day).Msg("invalidate free slot cache")
	}
}
