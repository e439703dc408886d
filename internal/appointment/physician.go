package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

const (
	DefaultWorkingStart = "09:00"
	DefaultWorkingEnd   = "17:00"
	DefaultSlotMinutes  = 15
)

// Schedule is a physician's parsed working-hours profile.
type Schedule struct {
	Start       timeofday.Minute
	End         timeofday.Minute
	SlotMinutes int
}

// ParseSchedule parses and validates working hours in either 12-hour or 24-hour form. The end may
// be "24:00" for a window that runs to midnight.
func ParseSchedule(start, end string, slotMinutes int) (Schedule, error) {
	s, err := timeofday.Parse(start)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: start: %w", ErrInvalidSchedule, err)
	}
	e, err := timeofday.ParseEnd(end)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: end: %w", ErrInvalidSchedule, err)
	}
	sch := Schedule{Start: s, End: e, SlotMinutes: slotMinutes}
	if err := sch.Validate(); err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

func (s Schedule) Validate() error {
	if s.SlotMinutes <= 0 || s.SlotMinutes > timeofday.MinutesPerDay {
		return fmt.Errorf("%w: slot duration must be between 1 and %d minutes", ErrInvalidSchedule, timeofday.MinutesPerDay)
	}
	if !s.Start.Valid() || s.End > timeofday.MinutesPerDay || s.Start >= s.End {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidSchedule, s.Start, s.End)
	}
	return nil
}

// SlotTimes steps from Start by SlotMinutes while the slot start is before End.
func (s Schedule) SlotTimes() []timeofday.Minute {
	times := make([]timeofday.Minute, 0, (int(s.End-s.Start)+s.SlotMinutes-1)/s.SlotMinutes)
	for t := s.Start; t < s.End; t = t.Add(s.SlotMinutes) {
		times = append(times, t)
	}
	return times
}

func (p *Physician) Schedule() (Schedule, error) {
	return ParseSchedule(p.WorkingStart, p.WorkingEnd, p.SlotDurationMinutes)
}

// PlanSlots is the SlotPlanner used for generation.
func PlanSlots(p *Physician) ([]timeofday.Minute, error) {
	sch, err := p.Schedule()
	if err != nil {
		return nil, fmt.Errorf("physician %s: %w", p.ID, err)
	}
	return sch.SlotTimes(), nil
}

type PhysicianInput struct {
	Name                string
	Specialization      string
	Email               string
	WorkingStart        string
	WorkingEnd          string
	SlotDurationMinutes int
}

func (in PhysicianInput) normalize() (*Physician, error) {
	name := strings.TrimSpace(in.Name)
	spec := strings.TrimSpace(in.Specialization)
	if name == "" || spec == "" || strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: name, specialization and email are required", ErrInvalidPhysician)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidPhysician, in.Email)
	}

	start, end, dur := in.WorkingStart, in.WorkingEnd, in.SlotDurationMinutes
	if strings.TrimSpace(start) == "" {
		start = DefaultWorkingStart
	}
	if strings.TrimSpace(end) == "" {
		end = DefaultWorkingEnd
	}
	if dur == 0 {
		dur = DefaultSlotMinutes
	}
	sch, err := ParseSchedule(start, end, dur)
	if err != nil {
		return nil, err
	}

	return &Physician{
		ID:                  uuid.New(),
		Name:                name,
		Specialization:      spec,
		Email:               email,
		WorkingStart:        sch.Start.Clock(),
		WorkingEnd:          sch.End.Clock(),
		SlotDurationMinutes: sch.SlotMinutes,
	}, nil
}

// RegisterPhysician validates and stores a physician profile. Omitted working hours default to
// 09:00-17:00 with 15 minute slots.
func (s *Service) RegisterPhysician(ctx context.Context, in PhysicianInput) (*Physician, error) {
	p, err := in.normalize()
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreatePhysician(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create physician: %w", err)
	}
	s.log.Info().Str("physician_id", created.ID.String()).Msg("physician registered")
	return created, nil
}

func (s *Service) GetPhysician(ctx context.Context, id uuid.UUID) (*Physician, error) {
	p, err := s.repo.GetPhysician(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get physician: %w", err)
	}
	return p, nil
}

// PhysicianByEmail looks a physician up by email; used by operator tooling to mint tokens.
func (s *Service) PhysicianByEmail(ctx context.Context, email string) (*Physician, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidPhysician, email)
	}
	p, err := s.repo.GetPhysicianByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("get physician by email: %w", err)
	}
	return p, nil
}

func (s *Service) ListPhysicians(ctx context.Context) ([]Physician, error) {
	ps, err := s.repo.ListPhysicians(ctx)
	if err != nil {
		return nil, fmt.Errorf("list physicians: %w", err)
	}
	return ps, nil
}

// UpdateSchedule replaces a physician's working hours. Days that already have slots keep them.
func (s *Service) UpdateSchedule(ctx context.Context, physicianID uuid.UUID, start, end string, slotMinutes int) (*Physician, error) {
	sch, err := ParseSchedule(start, end, slotMinutes)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.UpdatePhysicianSchedule(ctx, physicianID, sch.Start.Clock(), sch.End.Clock(), sch.SlotMinutes)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return p, nil
}
