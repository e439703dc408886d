package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/appointment"
)

type RegisterPhysicianRequest struct {
	Name                string `json:"name"`
	Specialization      string `json:"specialization"`
	Email               string `json:"email"`
	WorkingStart        string `json:"working_start,omitempty"`
	WorkingEnd          string `json:"working_end,omitempty"`
	SlotDurationMinutes int    `json:"slot_duration_minutes,omitempty"`
}

type UpdateScheduleRequest struct {
	WorkingStart        string `json:"working_start"`
	WorkingEnd          string `json:"working_end"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

type PhysicianResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Specialization      string    `json:"specialization"`
	Email               string    `json:"email,omitempty"`
	WorkingStart        string    `json:"working_start"`
	WorkingEnd          string    `json:"working_end"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
}

type GenerateSlotsRequest struct {
	Date string `json:"date"`
}

type GenerateSlotsResponse struct {
	Date      string `json:"date"`
	Generated bool   `json:"generated"`
}

type SlotResponse struct {
	SlotID      uuid.UUID `json:"slot_id"`
	Time24h     string    `json:"time_24h"`
	TimeDisplay string    `json:"time_display"`
}

type FreeSlotsResponse struct {
	PhysicianID uuid.UUID      `json:"physician_id"`
	Date        string         `json:"date"`
	Slots       []SlotResponse `json:"slots"`
}

type PatientRequest struct {
	Name  string `json:"name"`
	Age   *int   `json:"age,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type BookSlotRequest struct {
	SlotID  string         `json:"slot_id"`
	Patient PatientRequest `json:"patient"`
}

type BookingResponse struct {
	TrackingID  string `json:"tracking_id"`
	QueueNumber int    `json:"queue_number"`
	Date        string `json:"date"`
	TimeDisplay string `json:"time_display"`
}

// TrackingResponse omits the wait fields for completed and cancelled appointments.
type TrackingResponse struct {
	TrackingID    string  `json:"tracking_id"`
	PatientName   string  `json:"patient_name"`
	Status        string  `json:"status"`
	Date          string  `json:"date"`
	TimeDisplay   string  `json:"time_display"`
	QueueNumber   int     `json:"queue_number"`
	PatientsAhead *int    `json:"patients_ahead,omitempty"`
	DelayMinutes  *int    `json:"delay_minutes,omitempty"`
	ExpectedTime  *string `json:"expected_time,omitempty"`
	// DelayIsEstimate flags delay_minutes and expected_time as a rough heuristic.
	DelayIsEstimate bool `json:"delay_is_estimate,omitempty"`
}

type AppointmentResponse struct {
	TrackingID   string     `json:"tracking_id"`
	QueueNumber  int        `json:"queue_number"`
	Status       string     `json:"status"`
	Date         string     `json:"date"`
	Time24h      string     `json:"time_24h"`
	TimeDisplay  string     `json:"time_display"`
	PatientName  string     `json:"patient_name"`
	PatientAge   *int       `json:"patient_age,omitempty"`
	PatientEmail *string    `json:"patient_email,omitempty"`
	PatientPhone *string    `json:"patient_phone,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

type BoardResponse struct {
	Physician     PhysicianResponse     `json:"physician"`
	Date          string                `json:"date"`
	NowServing    *AppointmentResponse  `json:"now_serving"`
	WaitingList   []AppointmentResponse `json:"waiting_list"`
	CompletedList []AppointmentResponse `json:"completed_list"`
	CancelledList []AppointmentResponse `json:"cancelled_list"`
	Appointments  []AppointmentResponse `json:"appointments"`
}

type StatusChangeResponse struct {
	OK          bool                `json:"ok"`
	Appointment AppointmentResponse `json:"appointment"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPhysicianResponse(p *appointment.Physician) PhysicianResponse {
	return PhysicianResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Specialization:      p.Specialization,
		Email:               p.Email,
		WorkingStart:        p.WorkingStart,
		WorkingEnd:          p.WorkingEnd,
		SlotDurationMinutes: p.SlotDurationMinutes,
	}
}

func toSlotResponse(s appointment.Slot) SlotResponse {
	return SlotResponse{
		SlotID:      s.ID,
		Time24h:     s.Time.Clock(),
		TimeDisplay: s.Time.Display(),
	}
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		TrackingID:   a.TrackingID,
		QueueNumber:  a.QueueNumber,
		Status:       string(a.Status),
		Date:         appointment.FormatDate(a.Date),
		Time24h:      a.Time.Clock(),
		TimeDisplay:  a.Time.Display(),
		PatientName:  a.PatientName,
		PatientAge:   a.PatientAge,
		PatientEmail: a.PatientEmail,
		PatientPhone: a.PatientPhone,
		CreatedAt:    a.CreatedAt,
		CompletedAt:  a.CompletedAt,
		CancelledAt:  a.CancelledAt,
	}
}

func toAppointmentList(appts []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func toTrackingResponse(qs *appointment.QueueStatus) TrackingResponse {
	resp := TrackingResponse{
		TrackingID:    qs.TrackingID,
		PatientName:   qs.PatientName,
		Status:        string(qs.Status),
		Date:          appointment.FormatDate(qs.Date),
		TimeDisplay:   qs.Time.Display(),
		QueueNumber:   qs.QueueNumber,
		PatientsAhead: qs.PatientsAhead,
		DelayMinutes:  qs.DelayMinutes,
	}
	if qs.DelayMinutes != nil {
		resp.DelayIsEstimate = true
	}
	if qs.ExpectedTime != nil {
		expected := qs.ExpectedTime.Display()
		resp.ExpectedTime = &expected
	}
	return resp
}

func toBoardResponse(b *appointment.Board) BoardResponse {
	resp := BoardResponse{
		Physician:     toPhysicianResponse(b.Physician),
		Date:          appointment.FormatDate(b.Date),
		WaitingList:   toAppointmentList(b.Waiting),
		CompletedList: toAppointmentList(b.Completed),
		CancelledList: toAppointmentList(b.Cancelled),
		Appointments:  toAppointmentList(b.All),
	}
	if b.NowServing != nil {
		ns := toAppointmentResponse(*b.NowServing)
		resp.NowServing = &ns
	}
	return resp
}
