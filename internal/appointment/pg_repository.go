package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

const pgUniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const physicianColumns = `
	id, name, specialization, email, working_start, working_end,
	slot_duration_minutes, created_at, updated_at`

const appointmentColumns = `
	a.id, a.tracking_id, a.physician_id, a.patient_id, a.slot_id, a.queue_number, a.status,
	a.appt_date, EXTRACT(HOUR FROM a.appt_time)::int * 60 + EXTRACT(MINUTE FROM a.appt_time)::int,
	a.patient_name, a.patient_email, a.patient_phone, a.patient_age,
	a.created_at, a.updated_at, a.completed_at, a.cancelled_at`

// Helpers

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func scanPhysician(row pgx.Row) (*Physician, error) {
	var p Physician
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialization,
		&p.Email,
		&p.WorkingStart,
		&p.WorkingEnd,
		&p.SlotDurationMinutes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPhysicianNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var minute int
	if err := row.Scan(&s.ID, &s.PhysicianID, &s.Date, &minute, &s.Claimed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	s.Time = timeofday.Minute(minute)
	return &s, nil
}

func scanAppointment(row pgx.Row, extra ...any) (*Appointment, error) {
	var a Appointment
	var status string
	var minute int

	dest := []any{
		&a.ID,
		&a.TrackingID,
		&a.PhysicianID,
		&a.PatientID,
		&a.SlotID,
		&a.QueueNumber,
		&status,
		&a.Date,
		&minute,
		&a.PatientName,
		&a.PatientEmail,
		&a.PatientPhone,
		&a.PatientAge,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CompletedAt,
		&a.CancelledAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	a.Status = st
	a.Time = timeofday.Minute(minute)
	return &a, nil
}

// Physicians

func (r *PgRepository) CreatePhysician(ctx context.Context, p *Physician) (*Physician, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO physicians (id, name, specialization, email, working_start, working_end, slot_duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+physicianColumns,
		p.ID, p.Name, p.Specialization, p.Email, p.WorkingStart, p.WorkingEnd, p.SlotDurationMinutes)

	created, err := scanPhysician(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPhysicianEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetPhysician(ctx context.Context, id uuid.UUID) (*Physician, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+physicianColumns+`
		FROM physicians
		WHERE id = $1
	`, id)
	return scanPhysician(row)
}

func (r *PgRepository) GetPhysicianByEmail(ctx context.Context, email string) (*Physician, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+physicianColumns+`
		FROM physicians
		WHERE email = $1
	`, email)
	return scanPhysician(row)
}

func (r *PgRepository) ListPhysicians(ctx context.Context) ([]Physician, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+physicianColumns+`
		FROM physicians
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Physician
	for rows.Next() {
		p, err := scanPhysician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) UpdatePhysicianSchedule(ctx context.Context, id uuid.UUID, start, end string, slotMinutes int) (*Physician, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE physicians
		SET working_start = $2,
		    working_end = $3,
		    slot_duration_minutes = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+physicianColumns,
		id, start, end, slotMinutes)
	return scanPhysician(row)
}

// Slots

// GenerateSlots reads the profile FOR SHARE so a schedule update cannot interleave with the
// day's generation. The existence check only saves work; the UNIQUE (physician_id, slot_date,
// slot_time) index decides races, and a unique violation means another generator committed the
// day first.
func (r *PgRepository) GenerateSlots(ctx context.Context, physicianID uuid.UUID, date time.Time, plan SlotPlanner) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPhysician(tx.QueryRow(ctx, `
		SELECT `+physicianColumns+`
		FROM physicians
		WHERE id = $1
		FOR SHARE
	`, physicianID))
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM slots WHERE physician_id = $1 AND slot_date = $2)
	`, physicianID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("check existing slots: %w", err)
	}
	if exists {
		return false, tx.Commit(ctx)
	}

	times, err := plan(p)
	if err != nil {
		return false, err
	}
	minutes := make([]int32, len(times))
	for i, t := range times {
		minutes[i] = int32(t)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO slots (id, physician_id, slot_date, slot_time, claimed, created_at)
		SELECT gen_random_uuid(), $1, $2, make_time(m / 60, m % 60, 0), false, now()
		FROM unnest($3::int[]) AS m
	`, physicianID, date, minutes)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("commit slots: %w", err)
	}
	return true, nil
}

func (r *PgRepository) ListFreeSlots(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, physician_id, slot_date,
		       EXTRACT(HOUR FROM slot_time)::int * 60 + EXTRACT(MINUTE FROM slot_time)::int,
		       claimed
		FROM slots
		WHERE physician_id = $1
		  AND slot_date = $2
		  AND claimed = false
		ORDER BY slot_time ASC
	`, physicianID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Slot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Booking

// ClaimSlot runs the whole booking in one transaction. The slot flips to claimed with a single
// conditional UPDATE; zero rows means someone else holds it. The queue number comes from a
// per-(physician, day) counter row bumped with an upsert, which row-locks the counter until
// commit so concurrent claims on different slots of the same day serialize there and a rolled
// back claim leaves no gap.
func (r *PgRepository) ClaimSlot(ctx context.Context, req ClaimRequest) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var date time.Time
	err = tx.QueryRow(ctx, `
		UPDATE slots
		SET claimed = true,
		    claimed_at = now()
		WHERE id = $1
		  AND physician_id = $2
		  AND claimed = false
		RETURNING slot_date
	`, req.SlotID, req.PhysicianID).Scan(&date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.unclaimableReason(ctx, tx, req)
		}
		return nil, fmt.Errorf("claim slot: %w", err)
	}

	patientID, err := resolvePatient(ctx, tx, req.Patient)
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}

	var queueNumber int
	if err := tx.QueryRow(ctx, `
		INSERT INTO queue_counters (physician_id, queue_date, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (physician_id, queue_date)
		DO UPDATE SET last_number = queue_counters.last_number + 1
		RETURNING last_number
	`, req.PhysicianID, date).Scan(&queueNumber); err != nil {
		return nil, fmt.Errorf("next queue number: %w", err)
	}

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		INSERT INTO appointments AS a (
			id, tracking_id, physician_id, patient_id, slot_id, queue_number, status,
			appt_date, appt_time, patient_name, patient_email, patient_phone, patient_age,
			created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, 'scheduled',
			$7, (SELECT slot_time FROM slots WHERE id = $5), $8, $9, $10, $11,
			now(), now()
		)
		RETURNING `+appointmentColumns,
		req.AppointmentID, req.TrackingID, req.PhysicianID, patientID, req.SlotID, queueNumber,
		date, req.Patient.Name, req.Patient.EmailOrNil(), req.Patient.PhoneOrNil(), req.Patient.Age))
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return appt, nil
}

// unclaimableReason tells a missing slot apart from a claimed one after the conditional update
// matched nothing. It only classifies the failure; nothing is written.
func (r *PgRepository) unclaimableReason(ctx context.Context, tx pgx.Tx, req ClaimRequest) error {
	var claimed bool
	err := tx.QueryRow(ctx, `
		SELECT claimed FROM slots WHERE id = $1 AND physician_id = $2
	`, req.SlotID, req.PhysicianID).Scan(&claimed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("inspect slot: %w", err)
	}
	return ErrSlotAlreadyClaimed
}

// resolvePatient matches an existing patient by email, or creates one. Patients without an
// email always get a fresh record.
func resolvePatient(ctx context.Context, tx pgx.Tx, p PatientInfo) (uuid.UUID, error) {
	var id uuid.UUID
	if email := p.EmailOrNil(); email != nil {
		err := tx.QueryRow(ctx, `
			INSERT INTO patients (id, name, email, phone, age, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (email) WHERE email IS NOT NULL
			DO UPDATE SET email = EXCLUDED.email
			RETURNING id
		`, uuid.New(), p.Name, *email, p.PhoneOrNil(), p.Age).Scan(&id)
		return id, err
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, phone, age, created_at)
		VALUES ($1, $2, NULL, $3, $4, now())
		RETURNING id
	`, uuid.New(), p.Name, p.PhoneOrNil(), p.Age).Scan(&id)
	return id, err
}

// Queue and lifecycle

func (r *PgRepository) GetQueueSnapshot(ctx context.Context, trackingID string) (*QueueSnapshot, error) {
	var ahead, slotMinutes int
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`,
		       (SELECT COUNT(*)
		        FROM appointments a2
		        WHERE a2.physician_id = a.physician_id
		          AND a2.appt_date = a.appt_date
		          AND a2.status = 'scheduled'
		          AND a2.queue_number < a.queue_number) AS patients_ahead,
		       p.slot_duration_minutes
		FROM appointments a
		JOIN physicians p ON p.id = a.physician_id
		WHERE a.tracking_id = $1
	`, trackingID)

	appt, err := scanAppointment(row, &ahead, &slotMinutes)
	if err != nil {
		return nil, err
	}
	return &QueueSnapshot{
		Appointment:         *appt,
		PatientsAhead:       ahead,
		SlotDurationMinutes: slotMinutes,
	}, nil
}

func (r *PgRepository) ListAppointmentsForDay(ctx context.Context, physicianID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.physician_id = $1
		  AND a.appt_date = $2
		ORDER BY a.queue_number ASC
	`, physicianID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) TransitionStatus(ctx context.Context, physicianID uuid.UUID, trackingID string, to Status) (*Appointment, bool, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = $3::text,
		    updated_at = now(),
		    completed_at = CASE WHEN $3::text = 'completed' THEN now() ELSE a.completed_at END,
		    cancelled_at = CASE WHEN $3::text = 'cancelled' THEN now() ELSE a.cancelled_at END
		WHERE a.tracking_id = $1
		  AND a.physician_id = $2
		  AND a.status = 'scheduled'
		RETURNING `+appointmentColumns,
		trackingID, physicianID, string(to))

	appt, err := scanAppointment(row)
	if err == nil {
		return appt, true, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, false, err
	}

	current, err := scanAppointment(r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.tracking_id = $1
		  AND a.physician_id = $2
	`, trackingID, physicianID))
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
