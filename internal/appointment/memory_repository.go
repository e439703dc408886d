package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

type dayKey struct {
	physicianID uuid.UUID
	date        string
}

type slotKey struct {
	day  dayKey
	time timeofday.Minute
}

// MemoryRepository is an in-process Repository used by tests and tooling tests. One mutex
// guards every method, so each call is atomic the same way a Postgres transaction is.
type MemoryRepository struct {
	mu sync.Mutex

	physicians   map[uuid.UUID]Physician
	slots        map[uuid.UUID]Slot
	slotKeys     map[slotKey]uuid.UUID
	slotDays     map[dayKey]int
	patients     map[uuid.UUID]Patient
	patientEmail map[string]uuid.UUID
	counters     map[dayKey]int
	appointments map[string]Appointment
	events       []EventLog

	now func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		physicians:   make(map[uuid.UUID]Physician),
		slots:        make(map[uuid.UUID]Slot),
		slotKeys:     make(map[slotKey]uuid.UUID),
		slotDays:     make(map[dayKey]int),
		patients:     make(map[uuid.UUID]Patient),
		patientEmail: make(map[string]uuid.UUID),
		counters:     make(map[dayKey]int),
		appointments: make(map[string]Appointment),
		now:          time.Now,
	}
}

func keyOf(physicianID uuid.UUID, date time.Time) dayKey {
	return dayKey{physicianID: physicianID, date: FormatDate(date)}
}

func (r *MemoryRepository) CreatePhysician(ctx context.Context, p *Physician) (*Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.physicians {
		if existing.Email == p.Email {
			return nil, ErrPhysicianEmailTaken
		}
	}
	created := *p
	created.CreatedAt = r.now()
	created.UpdatedAt = created.CreatedAt
	r.physicians[created.ID] = created
	return &created, nil
}

func (r *MemoryRepository) GetPhysician(ctx context.Context, id uuid.UUID) (*Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.physicians[id]
	if !ok {
		return nil, ErrPhysicianNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetPhysicianByEmail(ctx context.Context, email string) (*Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.physicians {
		if p.Email == email {
			found := p
			return &found, nil
		}
	}
	return nil, ErrPhysicianNotFound
}

func (r *MemoryRepository) ListPhysicians(ctx context.Context) ([]Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Physician, 0, len(r.physicians))
	for _, p := range r.physicians {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *MemoryRepository) UpdatePhysicianSchedule(ctx context.Context, id uuid.UUID, start, end string, slotMinutes int) (*Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.physicians[id]
	if !ok {
		return nil, ErrPhysicianNotFound
	}
	p.WorkingStart = start
	p.WorkingEnd = end
	p.SlotDurationMinutes = slotMinutes
	p.UpdatedAt = r.now()
	r.physicians[id] = p
	return &p, nil
}

func (r *MemoryRepository) GenerateSlots(ctx context.Context, physicianID uuid.UUID, date time.Time, plan SlotPlanner) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.physicians[physicianID]
	if !ok {
		return false, ErrPhysicianNotFound
	}
	day := keyOf(physicianID, date)
	if r.slotDays[day] > 0 {
		return false, nil
	}

	times, err := plan(&p)
	if err != nil {
		return false, err
	}
	for _, t := range times {
		if _, dup := r.slotKeys[slotKey{day: day, time: t}]; dup {
			return false, nil
		}
	}
	for _, t := range times {
		s := Slot{ID: uuid.New(), PhysicianID: physicianID, Date: date, Time: t}
		r.slots[s.ID] = s
		r.slotKeys[slotKey{day: day, time: t}] = s.ID
	}
	r.slotDays[day] = len(times)
	return len(times) > 0, nil
}

func (r *MemoryRepository) ListFreeSlots(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := keyOf(physicianID, date)
	result := []Slot{}
	for _, s := range r.slots {
		if s.PhysicianID == physicianID && FormatDate(s.Date) == day.date && !s.Claimed {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Time < result[j].Time })
	return result, nil
}

// ClaimSlot checks and flips the claimed flag under the same lock that assigns the queue number,
// which is the in-memory equivalent of the conditional update inside one transaction.
func (r *MemoryRepository) ClaimSlot(ctx context.Context, req ClaimRequest) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[req.SlotID]
	if !ok || slot.PhysicianID != req.PhysicianID {
		return nil, ErrSlotNotFound
	}
	if slot.Claimed {
		return nil, ErrSlotAlreadyClaimed
	}

	now := r.now()
	slot.Claimed = true
	r.slots[slot.ID] = slot

	patientID := r.resolvePatient(req.Patient, now)

	day := keyOf(req.PhysicianID, slot.Date)
	r.counters[day]++

	appt := Appointment{
		ID:           req.AppointmentID,
		TrackingID:   req.TrackingID,
		PhysicianID:  req.PhysicianID,
		PatientID:    patientID,
		SlotID:       slot.ID,
		QueueNumber:  r.counters[day],
		Status:       StatusScheduled,
		Date:         slot.Date,
		Time:         slot.Time,
		PatientName:  req.Patient.Name,
		PatientEmail: req.Patient.EmailOrNil(),
		PatientPhone: req.Patient.PhoneOrNil(),
		PatientAge:   req.Patient.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.appointments[appt.TrackingID] = appt
	return &appt, nil
}

func (r *MemoryRepository) resolvePatient(info PatientInfo, now time.Time) uuid.UUID {
	if email := info.EmailOrNil(); email != nil {
		if id, ok := r.patientEmail[*email]; ok {
			return id
		}
	}
	p := Patient{
		ID:        uuid.New(),
		Name:      info.Name,
		Email:     info.EmailOrNil(),
		Phone:     info.PhoneOrNil(),
		Age:       info.Age,
		CreatedAt: now,
	}
	r.patients[p.ID] = p
	if p.Email != nil {
		r.patientEmail[*p.Email] = p.ID
	}
	return p.ID
}

func (r *MemoryRepository) GetQueueSnapshot(ctx context.Context, trackingID string) (*QueueSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[trackingID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	p, ok := r.physicians[appt.PhysicianID]
	if !ok {
		return nil, ErrPhysicianNotFound
	}

	return &QueueSnapshot{
		Appointment:         appt,
		PatientsAhead:       PatientsAhead(appt, r.dayLocked(appt.PhysicianID, appt.Date)),
		SlotDurationMinutes: p.SlotDurationMinutes,
	}, nil
}

func (r *MemoryRepository) ListAppointmentsForDay(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dayLocked(physicianID, date), nil
}

func (r *MemoryRepository) dayLocked(physicianID uuid.UUID, date time.Time) []Appointment {
	day := FormatDate(date)
	result := []Appointment{}
	for _, a := range r.appointments {
		if a.PhysicianID == physicianID && FormatDate(a.Date) == day {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].QueueNumber < result[j].QueueNumber })
	return result
}

func (r *MemoryRepository) TransitionStatus(ctx context.Context, physicianID uuid.UUID, trackingID string, to Status) (*Appointment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[trackingID]
	if !ok || appt.PhysicianID != physicianID {
		return nil, false, ErrAppointmentNotFound
	}
	if !appt.Status.CanTransitionTo(to) {
		return &appt, false, nil
	}

	now := r.now()
	appt.Status = to
	appt.UpdatedAt = now
	switch to {
	case StatusCompleted:
		appt.CompletedAt = &now
	case StatusCancelled:
		appt.CancelledAt = &now
	}
	r.appointments[trackingID] = appt
	return &appt, true, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}

// SlotCount reports how many slots, claimed or not, exist for a physician's day.
func (r *MemoryRepository) SlotCount(physicianID uuid.UUID, date time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := keyOf(physicianID, date)
	n := 0
	for k := range r.slotKeys {
		if k.day == day {
			n++
		}
	}
	return n
}

// AppointmentsForSlot reports how many appointments reference slotID.
func (r *MemoryRepository) AppointmentsForSlot(slotID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, a := range r.appointments {
		if a.SlotID == slotID {
			n++
		}
	}
	return n
}
