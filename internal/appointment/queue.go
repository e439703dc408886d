package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

// QueueStatus is what a patient sees when tracking an appointment. The wait fields are nil for
// completed and cancelled appointments.
type QueueStatus struct {
	TrackingID  string
	PatientName string
	Status      Status
	Date        time.Time
	Time        timeofday.Minute
	QueueNumber int

	PatientsAhead *int
	DelayMinutes  *int
	// ExpectedTime is Time plus the delay; nil when terminal or when it would run past midnight.
	ExpectedTime *timeofday.Minute
}

// Estimate derives the wait of a tracked appointment.
//
// The delay is approximate: every scheduled patient ahead is assumed to take exactly one slot
// duration. Time already elapsed in the current consultation and variable consult lengths are
// ignored, so the figure can be early or late.
func Estimate(snap QueueSnapshot) QueueStatus {
	a := snap.Appointment
	qs := QueueStatus{
		TrackingID:  a.TrackingID,
		PatientName: a.PatientName,
		Status:      a.Status,
		Date:        a.Date,
		Time:        a.Time,
		QueueNumber: a.QueueNumber,
	}

	if a.Status.Terminal() {
		return qs
	}

	ahead := snap.PatientsAhead
	if ahead < 0 {
		ahead = 0
	}
	delay := ahead * snap.SlotDurationMinutes
	qs.PatientsAhead = &ahead
	qs.DelayMinutes = &delay
	if expected := a.Time.Add(delay); expected.Valid() {
		qs.ExpectedTime = &expected
	}
	return qs
}

// PatientsAhead counts the scheduled appointments of the same physician and day that hold a
// smaller queue number than target. Completed and cancelled ones never count.
func PatientsAhead(target Appointment, day []Appointment) int {
	n := 0
	for _, a := range day {
		if a.PhysicianID != target.PhysicianID || !a.Date.Equal(target.Date) {
			continue
		}
		if a.Status == StatusScheduled && a.QueueNumber < target.QueueNumber {
			n++
		}
	}
	return n
}

// TrackAppointment reports queue position and expected delay for a tracking id.
func (s *Service) TrackAppointment(ctx context.Context, trackingID string) (*QueueStatus, error) {
	trackingID = NormalizeTrackingID(trackingID)
	if trackingID == "" {
		return nil, ErrAppointmentNotFound
	}
	snap, err := s.repo.GetQueueSnapshot(ctx, trackingID)
	if err != nil {
		return nil, fmt.Errorf("track appointment: %w", err)
	}
	qs := Estimate(*snap)
	return &qs, nil
}
