package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/hackgods/clinic-queue/internal/redis"
	"github.com/hackgods/clinic-queue/internal/timeofday"
)

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	return NewService(repo, nil, nil, nil, zerolog.Nop()), repo
}

func registerPhysician(t *testing.T, svc *Service, start, end string, slotMinutes int) *Physician {
	t.Helper()
	p, err := svc.RegisterPhysician(context.Background(), PhysicianInput{
		Name:                "Dr. Test",
		Specialization:      "General Practice",
		Email:               uuid.NewString() + "@clinic.test",
		WorkingStart:        start,
		WorkingEnd:          end,
		SlotDurationMinutes: slotMinutes,
	})
	require.NoError(t, err)
	return p
}

func generateAndList(t *testing.T, svc *Service, physicianID uuid.UUID) []Slot {
	t.Helper()
	ctx := context.Background()
	_, err := svc.GenerateSlots(ctx, physicianID, testDay)
	require.NoError(t, err)
	slots, err := svc.ListFreeSlots(ctx, physicianID, testDay)
	require.NoError(t, err)
	return slots
}

func TestScenario_HalfHourDayHasTwoSlots(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "09:30", 15)

	slots := generateAndList(t, svc, p.ID)
	require.Len(t, slots, 2)
	assert.Equal(t, timeofday.MustParse("09:00"), slots[0].Time)
	assert.Equal(t, timeofday.MustParse("09:15"), slots[1].Time)

	_, err := svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "Ada"})
	require.NoError(t, err)
	_, err = svc.BookSlot(ctx, p.ID, slots[1].ID, PatientInfo{Name: "Grace"})
	require.NoError(t, err)

	for _, s := range slots {
		_, err = svc.BookSlot(ctx, p.ID, s.ID, PatientInfo{Name: "Linus"})
		assert.ErrorIs(t, err, ErrSlotAlreadyClaimed)
		assert.Equal(t, KindConflict, KindOf(err))
	}
}

func TestScenario_QueueAndDelay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "12:00", 15)
	slots := generateAndList(t, svc, p.ID)

	var bookings []*Booking
	for i, name := range []string{"Ada", "Grace", "Linus"} {
		b, err := svc.BookSlot(ctx, p.ID, slots[i].ID, PatientInfo{Name: name})
		require.NoError(t, err)
		assert.Equal(t, i+1, b.QueueNumber)
		bookings = append(bookings, b)
	}

	status, err := svc.TrackAppointment(ctx, bookings[2].TrackingID)
	require.NoError(t, err)
	require.NotNil(t, status.PatientsAhead)
	assert.Equal(t, 2, *status.PatientsAhead)
	assert.Equal(t, 30, *status.DelayMinutes)

	_, err = svc.CompleteAppointment(ctx, p.ID, bookings[0].TrackingID)
	require.NoError(t, err)

	status, err = svc.TrackAppointment(ctx, bookings[2].TrackingID)
	require.NoError(t, err)
	assert.Equal(t, 1, *status.PatientsAhead)
	assert.Equal(t, 15, *status.DelayMinutes)

	status, err = svc.TrackAppointment(ctx, bookings[0].TrackingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Nil(t, status.PatientsAhead)
	assert.Nil(t, status.DelayMinutes)
}

func TestScenario_RacingGenerationCreatesOneSet(t *testing.T) {
	svc, repo := newTestService(t)
	p := registerPhysician(t, svc, "09:00", "17:00", 15)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		generated int
		errs      []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.GenerateSlots(context.Background(), p.ID, testDay)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if ok {
				generated++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, generated)
	assert.Equal(t, 32, repo.SlotCount(p.ID, testDay))
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "10:00", 20)

	ok, err := svc.GenerateSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.True(t, ok)

	first, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)

	ok, err = svc.GenerateSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.False(t, ok)

	second, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, repo.SlotCount(p.ID, testDay))
}

func TestGenerateSlots_UnknownPhysician(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GenerateSlots(context.Background(), uuid.New(), testDay)
	assert.ErrorIs(t, err, ErrPhysicianNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGenerateSlots_PastDateAllowed(t *testing.T) {
	svc, repo := newTestService(t)
	p := registerPhysician(t, svc, "09:00", "10:00", 30)
	past := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	ok, err := svc.GenerateSlots(context.Background(), p.ID, past)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, repo.SlotCount(p.ID, past))
}

func TestGenerateSlots_RecordsEvent(t *testing.T) {
	svc, repo := newTestService(t)
	p := registerPhysician(t, svc, "09:00", "10:00", 30)

	_, err := svc.GenerateSlots(context.Background(), p.ID, testDay)
	require.NoError(t, err)

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventSlotsGenerated, events[0].EventType)
	assert.JSONEq(t, fmt.Sprintf(`{"physician_id":%q,"date":"2026-03-02"}`, p.ID), string(events[0].Payload))
}

func TestBookSlot_ExclusiveUnderConcurrency(t *testing.T) {
	svc, repo := newTestService(t)
	p := registerPhysician(t, svc, "09:00", "09:15", 15)
	slots := generateAndList(t, svc, p.ID)
	require.Len(t, slots, 1)
	target := slots[0].ID

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.BookSlot(context.Background(), p.ID, target, PatientInfo{Name: fmt.Sprintf("patient-%d", i)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotAlreadyClaimed):
				conflicts++
			default:
				other = append(other, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, repo.AppointmentsForSlot(target))
}

func TestBookSlot_QueueNumbersMonotonicUnderConcurrency(t *testing.T) {
	svc, repo := newTestService(t)
	p := registerPhysician(t, svc, "09:00", "17:00", 15)
	slots := generateAndList(t, svc, p.ID)
	require.Len(t, slots, 32)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, len(slots))
	for i, s := range slots {
		wg.Add(1)
		go func(i int, slotID uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := svc.BookSlot(context.Background(), p.ID, slotID, PatientInfo{Name: fmt.Sprintf("patient-%d", i)})
			errs <- err
		}(i, s.ID)
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	appts, err := repo.ListAppointmentsForDay(context.Background(), p.ID, testDay)
	require.NoError(t, err)
	require.Len(t, appts, 32)

	numbers := make([]int, 0, len(appts))
	for _, a := range appts {
		numbers = append(numbers, a.QueueNumber)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, i+1, n)
	}

	// Claim order and queue order agree.
	sort.Slice(appts, func(i, j int) bool { return appts[i].QueueNumber < appts[j].QueueNumber })
	for i := 1; i < len(appts); i++ {
		assert.False(t, appts[i].CreatedAt.Before(appts[i-1].CreatedAt))
	}
}

func TestBookSlot_QueueIsPerPhysicianAndDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := registerPhysician(t, svc, "09:00", "10:00", 30)
	b := registerPhysician(t, svc, "09:00", "10:00", 30)
	nextDay := testDay.AddDate(0, 0, 1)

	aSlots := generateAndList(t, svc, a.ID)
	bSlots := generateAndList(t, svc, b.ID)
	_, err := svc.GenerateSlots(ctx, a.ID, nextDay)
	require.NoError(t, err)
	aNext, err := svc.ListFreeSlots(ctx, a.ID, nextDay)
	require.NoError(t, err)

	for _, tc := range []struct {
		physician uuid.UUID
		slot      uuid.UUID
		want      int
	}{
		{a.ID, aSlots[1].ID, 1},
		{a.ID, aSlots[0].ID, 2},
		{b.ID, bSlots[0].ID, 1},
		{a.ID, aNext[0].ID, 1},
	} {
		booking, err := svc.BookSlot(ctx, tc.physician, tc.slot, PatientInfo{Name: "P"})
		require.NoError(t, err)
		assert.Equal(t, tc.want, booking.QueueNumber)
	}
}

func TestBookSlot_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "10:00", 30)
	other := registerPhysician(t, svc, "09:00", "10:00", 30)
	slots := generateAndList(t, svc, p.ID)

	_, err := svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidPatient)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.BookSlot(ctx, p.ID, uuid.New(), PatientInfo{Name: "Ada"})
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = svc.BookSlot(ctx, other.ID, slots[0].ID, PatientInfo{Name: "Ada"})
	assert.ErrorIs(t, err, ErrSlotNotFound)

	// Validation failures write nothing.
	free, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.Len(t, free, 2)
}

func TestBookSlot_ReusesPatientByEmail(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "10:00", 15)
	slots := generateAndList(t, svc, p.ID)

	first, err := svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "Ada", Email: "Ada@Example.com"})
	require.NoError(t, err)
	second, err := svc.BookSlot(ctx, p.ID, slots[1].ID, PatientInfo{Name: "Ada L.", Email: "ada@example.com "})
	require.NoError(t, err)
	anonA, err := svc.BookSlot(ctx, p.ID, slots[2].ID, PatientInfo{Name: "Anon"})
	require.NoError(t, err)
	anonB, err := svc.BookSlot(ctx, p.ID, slots[3].ID, PatientInfo{Name: "Anon"})
	require.NoError(t, err)

	assert.Equal(t, first.Appointment.PatientID, second.Appointment.PatientID)
	assert.NotEqual(t, anonA.Appointment.PatientID, anonB.Appointment.PatientID)
	assert.Len(t, repo.patients, 3)
}

type stubLocker struct {
	err   error
	calls int
}

func (l *stubLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

func TestBookSlot_ClaimGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("held by another request", func(t *testing.T) {
		repo := NewMemoryRepository()
		locker := &stubLocker{err: redisclient.ErrLockNotAcquired}
		svc := NewService(repo, locker, nil, nil, zerolog.Nop())
		p := registerPhysician(t, svc, "09:00", "10:00", 30)
		slots := generateAndList(t, svc, p.ID)

		_, err := svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "Ada"})
		assert.ErrorIs(t, err, ErrSlotBeingClaimed)
		assert.Equal(t, KindConflict, KindOf(err))
		assert.Equal(t, 0, repo.AppointmentsForSlot(slots[0].ID))
	})

	t.Run("backend unavailable falls through to the store", func(t *testing.T) {
		repo := NewMemoryRepository()
		locker := &stubLocker{err: fmt.Errorf("%w: dial tcp: refused", redisclient.ErrLockUnavailable)}
		svc := NewService(repo, locker, nil, nil, zerolog.Nop())
		p := registerPhysician(t, svc, "09:00", "10:00", 30)
		slots := generateAndList(t, svc, p.ID)

		b, err := svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, 1, b.QueueNumber)

		_, err = svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "Grace"})
		assert.ErrorIs(t, err, ErrSlotAlreadyClaimed)
		assert.Equal(t, 2, locker.calls)
	})
}

type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	versions    map[string]int64
	gets        int
	invalidated []string
	// beforeSet runs once, just before the next Set, to interleave a concurrent claim.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), versions: make(map[string]int64)}
}

func (c *memCache) dayKey(id uuid.UUID, day string) string { return id.String() + "/" + day }

func (c *memCache) key(id uuid.UUID, day string, version int64) string {
	return fmt.Sprintf("%s/%s/v%d", id, day, version)
}

func (c *memCache) current(id uuid.UUID, day string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key(id, day, c.versions[c.dayKey(id, day)])
}

func (c *memCache) Version(_ context.Context, id uuid.UUID, day string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[c.dayKey(id, day)], nil
}

func (c *memCache) Get(_ context.Context, id uuid.UUID, day string, version int64) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[c.key(id, day, version)]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, id uuid.UUID, day string, version int64, data []byte) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[c.key(id, day, version)] = data
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id uuid.UUID, day string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[c.dayKey(id, day)]++
	c.invalidated = append(c.invalidated, day)
	return nil
}

func TestListFreeSlots_CacheReadThroughAndInvalidation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	cache := newMemCache()
	svc := NewService(repo, nil, cache, nil, zerolog.Nop())
	p := registerPhysician(t, svc, "09:00", "10:00", 30)

	_, err := svc.GenerateSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-02"}, cache.invalidated)

	first, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Contains(t, cache.data, cache.current(p.ID, "2026-03-02"))

	cached, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	_, err = svc.BookSlot(ctx, p.ID, first[0].ID, PatientInfo{Name: "Ada"})
	require.NoError(t, err)
	assert.NotContains(t, cache.data, cache.current(p.ID, "2026-03-02"))

	after, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, first[1].ID, after[0].ID)
}

func TestListFreeSlots_ClaimDuringReadIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	cache := newMemCache()
	svc := NewService(repo, nil, cache, nil, zerolog.Nop())
	p := registerPhysician(t, svc, "09:00", "10:00", 30)
	slots := generateAndList(t, svc, p.ID)
	require.Len(t, slots, 2)

	// Expire the entry written above so the next list goes to the store.
	require.NoError(t, cache.Invalidate(ctx, p.ID, "2026-03-02"))

	// The claim commits and invalidates after the list read the store but before it caches.
	cache.beforeSet = func() {
		_, err := svc.BookSlot(ctx, p.ID, slots[0].ID, PatientInfo{Name: "Ada"})
		require.NoError(t, err)
	}
	stale, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	fresh, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, slots[1].ID, fresh[0].ID)
}

func TestLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "10:00", 15)
	other := registerPhysician(t, svc, "09:00", "10:00", 15)
	slots := generateAndList(t, svc, p.ID)

	var ids []string
	for i := 0; i < 3; i++ {
		b, err := svc.BookSlot(ctx, p.ID, slots[i].ID, PatientInfo{Name: fmt.Sprintf("P%d", i)})
		require.NoError(t, err)
		ids = append(ids, b.TrackingID)
	}

	completed, err := svc.CompleteAppointment(ctx, p.ID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	again, err := svc.CompleteAppointment(ctx, p.ID, " "+ids[0]+" ")
	require.NoError(t, err)
	assert.Equal(t, completed.CompletedAt, again.CompletedAt)

	_, err = svc.CancelAppointment(ctx, p.ID, ids[0])
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	cancelled, err := svc.CancelAppointment(ctx, p.ID, ids[1])
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.CompleteAppointment(ctx, p.ID, ids[1])
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.CompleteAppointment(ctx, other.ID, ids[2])
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = svc.CompleteAppointment(ctx, p.ID, "APTMISSING")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	board, err := svc.ListAppointments(ctx, p.ID, testDay.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, testDay, board.Date)
	assert.Equal(t, p.ID, board.Physician.ID)
	require.NotNil(t, board.NowServing)
	assert.Equal(t, ids[2], board.NowServing.TrackingID)
	assert.Empty(t, board.Waiting)
	require.Len(t, board.Completed, 1)
	require.Len(t, board.Cancelled, 1)
	assert.Len(t, board.All, 3)

	// The cancelled slot is not released.
	free, err := svc.ListFreeSlots(ctx, p.ID, testDay)
	require.NoError(t, err)
	assert.Len(t, free, 1)

	var types []string
	for _, ev := range repo.Events() {
		types = append(types, ev.EventType)
	}
	assert.Equal(t, []string{
		EventSlotsGenerated,
		EventAppointmentBooked, EventAppointmentBooked, EventAppointmentBooked,
		EventAppointmentCompleted, EventAppointmentCancelled,
	}, types)
}

func TestListAppointments_UnknownPhysician(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ListAppointments(context.Background(), uuid.New(), testDay)
	assert.ErrorIs(t, err, ErrPhysicianNotFound)
}

func TestGenerateUpcoming(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	a := registerPhysician(t, svc, "09:00", "10:00", 30)
	b := registerPhysician(t, svc, "13:00", "14:00", 20)

	summary, err := svc.GenerateUpcoming(ctx, testDay.Add(15*time.Hour), 3)
	require.NoError(t, err)
	assert.Equal(t, PregenSummary{Physicians: 2, Generated: 6}, summary)

	for i := 0; i < 3; i++ {
		day := testDay.AddDate(0, 0, i)
		assert.Equal(t, 2, repo.SlotCount(a.ID, day))
		assert.Equal(t, 3, repo.SlotCount(b.ID, day))
	}

	summary, err = svc.GenerateUpcoming(ctx, testDay, 3)
	require.NoError(t, err)
	assert.Equal(t, PregenSummary{Physicians: 2}, summary)
}

func TestPhysicianProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.RegisterPhysician(ctx, PhysicianInput{
		Name: " Dr. Who ", Specialization: "Time", Email: "WHO@tardis.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Who", p.Name)
	assert.Equal(t, "who@tardis.test", p.Email)
	assert.Equal(t, DefaultWorkingStart, p.WorkingStart)
	assert.Equal(t, DefaultWorkingEnd, p.WorkingEnd)
	assert.Equal(t, DefaultSlotMinutes, p.SlotDurationMinutes)

	_, err = svc.RegisterPhysician(ctx, PhysicianInput{
		Name: "Other", Specialization: "Time", Email: "who@tardis.test",
	})
	assert.ErrorIs(t, err, ErrPhysicianEmailTaken)

	updated, err := svc.UpdateSchedule(ctx, p.ID, "8:00 AM", "12:30 PM", 10)
	require.NoError(t, err)
	assert.Equal(t, "08:00", updated.WorkingStart)
	assert.Equal(t, "12:30", updated.WorkingEnd)
	assert.Equal(t, 10, updated.SlotDurationMinutes)

	_, err = svc.UpdateSchedule(ctx, p.ID, "12:00", "08:00", 10)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = svc.UpdateSchedule(ctx, uuid.New(), "08:00", "12:00", 10)
	assert.ErrorIs(t, err, ErrPhysicianNotFound)

	got, err := svc.GetPhysician(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.WorkingStart)

	all, err := svc.ListPhysicians(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPhysicianByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := registerPhysician(t, svc, "09:00", "10:00", 15)

	for _, lookup := range []string{p.Email, " " + strings.ToUpper(p.Email), "Dr Test <" + p.Email + ">"} {
		got, err := svc.PhysicianByEmail(ctx, lookup)
		require.NoError(t, err, lookup)
		assert.Equal(t, p.ID, got.ID)
	}

	_, err := svc.PhysicianByEmail(ctx, "nobody@clinic.test")
	assert.ErrorIs(t, err, ErrPhysicianNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.PhysicianByEmail(ctx, "not an email")
	assert.ErrorIs(t, err, ErrInvalidPhysician)
}
