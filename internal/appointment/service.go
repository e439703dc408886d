package appointment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-queue/internal/metrics"
	redisclient "github.com/hackgods/clinic-queue/internal/redis"
)

const (
	EventSlotsGenerated       = "SLOTS_GENERATED"
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

// FreeSlotCache holds serialized free-slot lists per physician and day. It is an optimisation
// only; every miss or error falls through to the repository.
//
// Entries are versioned per day. A reader takes the version before querying the store and writes
// back under that version; Invalidate advances it, so a list read before a claim can never be
// served after the claim's invalidation.
type FreeSlotCache interface {
	Version(ctx context.Context, physicianID uuid.UUID, day string) (int64, error)
	Get(ctx context.Context, physicianID uuid.UUID, day string, version int64) ([]byte, bool, error)
	Set(ctx context.Context, physicianID uuid.UUID, day string, version int64, data []byte) error
	Invalidate(ctx context.Context, physicianID uuid.UUID, day string) error
}

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	cache   FreeSlotCache
	metrics *metrics.Booking
	log     zerolog.Logger
	now     func() time.Time
}

// NewService wires the engine. locker, cache and m may be nil.
func NewService(repo Repository, locker redisclient.Locker, cache FreeSlotCache, m *metrics.Booking, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		cache:   cache,
		metrics: m,
		log:     logger.With().Str("component", "appointment").Logger(),
		now:     time.Now,
	}
}

func (s *Service) logEvent(ctx context.Context, appointmentID *uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("insert event log")
	}
}
