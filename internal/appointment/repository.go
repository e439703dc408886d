package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

// SlotPlanner turns a physician profile into the ordered slot times of one day. It runs inside
// the generation transaction, after the profile has been read.
type SlotPlanner func(p *Physician) ([]timeofday.Minute, error)

// Repository contains all DB interactions needed by the service.
//
// Implementations must make ClaimSlot a single unit: the conditional free→claimed update,
// patient resolution, queue number assignment and appointment insert commit or roll back
// together, and two claims of the same slot can never both succeed.
type Repository interface {
	CreatePhysician(ctx context.Context, p *Physician) (*Physician, error)
	GetPhysician(ctx context.Context, id uuid.UUID) (*Physician, error)
	// GetPhysicianByEmail matches the normalized (lower-case) email.
	GetPhysicianByEmail(ctx context.Context, email string) (*Physician, error)
	ListPhysicians(ctx context.Context) ([]Physician, error)
	UpdatePhysicianSchedule(ctx context.Context, id uuid.UUID, start, end string, slotMinutes int) (*Physician, error)

	// GenerateSlots inserts the planned slots for (physician, date) unless the day already has
	// slots. It reports false when nothing was inserted, including when a concurrent generator
	// won the race.
	GenerateSlots(ctx context.Context, physicianID uuid.UUID, date time.Time, plan SlotPlanner) (bool, error)
	ListFreeSlots(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Slot, error)

	ClaimSlot(ctx context.Context, req ClaimRequest) (*Appointment, error)

	GetQueueSnapshot(ctx context.Context, trackingID string) (*QueueSnapshot, error)
	ListAppointmentsForDay(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Appointment, error)

	// TransitionStatus moves a scheduled appointment owned by physicianID to status to. When the
	// appointment exists but is no longer scheduled it is returned unchanged with changed=false.
	TransitionStatus(ctx context.Context, physicianID uuid.UUID, trackingID string, to Status) (appt *Appointment, changed bool, err error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
