package appointment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Board is a physician's view of one day, derived from the appointment set alone.
type Board struct {
	Physician *Physician
	Date      time.Time
	// NowServing is the scheduled appointment with the smallest queue number.
	NowServing *Appointment
	// Waiting holds the remaining scheduled appointments in queue order.
	Waiting   []Appointment
	Completed []Appointment
	Cancelled []Appointment
	All       []Appointment
}

// BuildBoard groups appointments by status in queue order. It does not mutate appts.
func BuildBoard(appts []Appointment) Board {
	all := make([]Appointment, len(appts))
	copy(all, appts)
	sort.SliceStable(all, func(i, j int) bool { return all[i].QueueNumber < all[j].QueueNumber })

	b := Board{All: all}
	for i := range all {
		switch all[i].Status {
		case StatusScheduled:
			if b.NowServing == nil {
				b.NowServing = &all[i]
				continue
			}
			b.Waiting = append(b.Waiting, all[i])
		case StatusCompleted:
			b.Completed = append(b.Completed, all[i])
		case StatusCancelled:
			b.Cancelled = append(b.Cancelled, all[i])
		}
	}
	return b
}

// ListAppointments builds the dashboard of a physician's day.
func (s *Service) ListAppointments(ctx context.Context, physicianID uuid.UUID, date time.Time) (*Board, error) {
	date = DateOf(date)

	p, err := s.repo.GetPhysician(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("load physician: %w", err)
	}

	appts, err := s.repo.ListAppointmentsForDay(ctx, physicianID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	b := BuildBoard(appts)
	b.Physician = p
	b.Date = date
	return &b, nil
}

// CompleteAppointment marks a scheduled appointment completed. Completing an appointment that
// is already completed is a no-op that returns it unchanged; completing a cancelled one is an
// ErrInvalidStatusTransition.
func (s *Service) CompleteAppointment(ctx context.Context, physicianID uuid.UUID, trackingID string) (*Appointment, error) {
	return s.transition(ctx, physicianID, trackingID, StatusCompleted, EventAppointmentCompleted)
}

// CancelAppointment marks a scheduled appointment cancelled. The slot stays claimed.
func (s *Service) CancelAppointment(ctx context.Context, physicianID uuid.UUID, trackingID string) (*Appointment, error) {
	return s.transition(ctx, physicianID, trackingID, StatusCancelled, EventAppointmentCancelled)
}

func (s *Service) transition(ctx context.Context, physicianID uuid.UUID, trackingID string, to Status, event string) (*Appointment, error) {
	trackingID = NormalizeTrackingID(trackingID)
	if trackingID == "" {
		return nil, ErrAppointmentNotFound
	}

	appt, changed, err := s.repo.TransitionStatus(ctx, physicianID, trackingID, to)
	if err != nil {
		return nil, fmt.Errorf("%s appointment: %w", to, err)
	}

	if !changed {
		if appt.Status == to {
			return appt, nil
		}
		s.metrics.ObserveTransition(string(to), "rejected")
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, appt.Status, to)
	}

	s.metrics.ObserveTransition(string(to), "applied")
	s.logEvent(ctx, &appt.ID, event, map[string]any{
		"tracking_id":  appt.TrackingID,
		"queue_number": appt.QueueNumber,
	})
	s.log.Info().
		Str("tracking_id", appt.TrackingID).
		Str("status", string(appt.Status)).
		Msg("appointment status changed")

	return appt, nil
}
