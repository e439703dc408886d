package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/hackgods/clinic-queue/internal/redis"
	"github.com/hackgods/clinic-queue/internal/timeofday"
)

const maxPatientAge = 150

// PatientInfo is the patient part of a booking request. Name is required.
type PatientInfo struct {
	Name  string
	Age   *int
	Email string
	Phone string
}

func (p PatientInfo) normalize() (PatientInfo, error) {
	out := PatientInfo{
		Name:  strings.TrimSpace(p.Name),
		Phone: strings.TrimSpace(p.Phone),
		Age:   p.Age,
	}
	if out.Name == "" {
		return PatientInfo{}, fmt.Errorf("%w: patient name is required", ErrInvalidPatient)
	}
	if out.Age != nil && (*out.Age < 0 || *out.Age > maxPatientAge) {
		return PatientInfo{}, fmt.Errorf("%w: age %d out of range", ErrInvalidPatient, *out.Age)
	}
	if strings.TrimSpace(p.Email) != "" {
		email, err := normalizeEmail(p.Email)
		if err != nil {
			return PatientInfo{}, fmt.Errorf("%w: email %q", ErrInvalidPatient, p.Email)
		}
		out.Email = email
	}
	return out, nil
}

// normalizeEmail reduces an address, including the "Name <addr>" form, to its lower-case
// bare address so it can serve as a match key.
func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}

// EmailOrNil returns nil when no email was given. Patients without an email are never matched
// to an existing record.
func (p PatientInfo) EmailOrNil() *string {
	if p.Email == "" {
		return nil
	}
	e := p.Email
	return &e
}

func (p PatientInfo) PhoneOrNil() *string {
	if p.Phone == "" {
		return nil
	}
	ph := p.Phone
	return &ph
}

// Booking is the result of a successful claim.
type Booking struct {
	TrackingID  string
	QueueNumber int
	Date        time.Time
	Time        timeofday.Minute
	Appointment *Appointment
}

// BookSlot claims a free slot for a patient and records the appointment with the next queue
// number of the physician's day. A slot that is already claimed, or is being claimed right now,
// fails immediately with a conflict; the engine never waits or retries.
func (s *Service) BookSlot(ctx context.Context, physicianID, slotID uuid.UUID, info PatientInfo) (*Booking, error) {
	start := s.now()

	patient, err := info.normalize()
	if err != nil {
		s.metrics.ObserveClaim("invalid", s.now().Sub(start).Seconds())
		return nil, err
	}

	req := ClaimRequest{
		AppointmentID: uuid.New(),
		TrackingID:    NewTrackingID(start),
		PhysicianID:   physicianID,
		SlotID:        slotID,
		Patient:       patient,
	}

	var appt *Appointment
	err = s.withClaimGuard(ctx, slotID, func(ctx context.Context) error {
		a, err := s.repo.ClaimSlot(ctx, req)
		if err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		outcome := "error"
		switch KindOf(err) {
		case KindConflict:
			outcome = "conflict"
		case KindNotFound:
			outcome = "not_found"
		}
		s.metrics.ObserveClaim(outcome, s.now().Sub(start).Seconds())
		if outcome == "error" {
			return nil, fmt.Errorf("claim slot: %w", err)
		}
		return nil, err
	}

	s.metrics.ObserveClaim("booked", s.now().Sub(start).Seconds())
	s.invalidateFreeSlots(ctx, physicianID, FormatDate(appt.Date))
	s.logEvent(ctx, &appt.ID, EventAppointmentBooked, map[string]any{
		"tracking_id":  appt.TrackingID,
		"slot_id":      slotID.String(),
		"physician_id": physicianID.String(),
		"queue_number": appt.QueueNumber,
	})
	s.log.Info().
		Str("tracking_id", appt.TrackingID).
		Str("physician_id", physicianID.String()).
		Str("date", FormatDate(appt.Date)).
		Int("queue_number", appt.QueueNumber).
		Msg("slot booked")

	return &Booking{
		TrackingID:  appt.TrackingID,
		QueueNumber: appt.QueueNumber,
		Date:        appt.Date,
		Time:        appt.Time,
		Appointment: appt,
	}, nil
}

// withClaimGuard runs fn under the per-slot lock when one is configured. A lock held by another
// request is a conflict. When the lock backend itself is unavailable fn runs unguarded: the
// store's conditional update is what guarantees exclusivity.
func (s *Service) withClaimGuard(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	err := s.locker.WithSlotLock(ctx, slotID, fn)
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return ErrSlotBeingClaimed
	case errors.Is(err, redisclient.ErrLockUnavailable):
		s.log.Warn().Err(err).Str("slot_id", slotID.String()).Msg("claim guard unavailable, relying on store")
		return fn(ctx)
	}
	return err
}
