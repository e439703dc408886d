package appointment

import (
	"errors"

	"github.com/hackgods/clinic-queue/internal/timeofday"
)

var (
	ErrPhysicianNotFound   = errors.New("physician not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

var (
	ErrSlotAlreadyClaimed      = errors.New("slot already booked, pick another slot")
	ErrSlotBeingClaimed        = errors.New("slot is being booked by another request, pick another slot")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPhysicianEmailTaken     = errors.New("physician with this email already exists")
)

var (
	ErrInvalidPatient   = errors.New("invalid patient details")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidSchedule  = errors.New("invalid working schedule")
	ErrInvalidPhysician = errors.New("invalid physician details")
)

// ErrorKind groups errors by how a caller should react to them.
type ErrorKind int

const (
	// KindTransient covers storage and infrastructure failures; the caller may retry.
	KindTransient ErrorKind = iota
	KindNotFound
	KindConflict
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "transient"
	}
}

// KindOf classifies err. Unknown errors are transient.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrPhysicianNotFound),
		errors.Is(err, ErrSlotNotFound),
		errors.Is(err, ErrAppointmentNotFound):
		return KindNotFound
	case errors.Is(err, ErrSlotAlreadyClaimed),
		errors.Is(err, ErrSlotBeingClaimed),
		errors.Is(err, ErrInvalidStatusTransition),
		errors.Is(err, ErrPhysicianEmailTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidPatient),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrInvalidPhysician),
		errors.Is(err, timeofday.ErrInvalidTime):
		return KindValidation
	default:
		return KindTransient
	}
}
