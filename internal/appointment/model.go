package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

// Status is the lifecycle state of an appointment.
//
//	scheduled → completed
//	scheduled → cancelled
//
// Completed and cancelled are terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled:
		return true
	case StatusScheduled:
		return false
	}
	panic(fmt.Sprintf("appointment: unhandled status %q", string(s)))
}

func (s Status) CanTransitionTo(to Status) bool {
	switch s {
	case StatusScheduled:
		return to == StatusCompleted || to == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

type Physician struct {
	ID             uuid.UUID
	Name           string
	Specialization string
	Email          string
	// Working hours are stored normalised as "HH:MM" and parsed again when slots are
	// generated, so a corrupted row fails loudly instead of producing midnight slots.
	WorkingStart        string
	WorkingEnd          string
	SlotDurationMinutes int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Slot struct {
	ID          uuid.UUID
	PhysicianID uuid.UUID
	Date        time.Time
	Time        timeofday.Minute
	Claimed     bool
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	Age       *int
	CreatedAt time.Time
}

type Appointment struct {
	ID          uuid.UUID
	TrackingID  string
	PhysicianID uuid.UUID
	PatientID   uuid.UUID
	SlotID      uuid.UUID
	QueueNumber int
	Status      Status
	Date        time.Time
	Time        timeofday.Minute

	PatientName  string
	PatientEmail *string
	PatientPhone *string
	PatientAge   *int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// ClaimRequest carries everything the store needs to claim a slot and record the appointment
// in one transaction.
type ClaimRequest struct {
	AppointmentID uuid.UUID
	TrackingID    string
	PhysicianID   uuid.UUID
	SlotID        uuid.UUID
	Patient       PatientInfo
}

// QueueSnapshot is a tracked appointment together with the inputs of the wait estimate, read
// from the store in a single statement.
type QueueSnapshot struct {
	Appointment         Appointment
	PatientsAhead       int
	SlotDurationMinutes int
}
