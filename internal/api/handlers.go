package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-queue/internal/appointment"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func physicianIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "physicianID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_physician_id", "physician id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// dateParam reads ?date=YYYY-MM-DD and falls back to today in the server's location.
func dateParam(w http.ResponseWriter, r *http.Request, now func() time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return appointment.DateOf(now()), true
	}
	d, err := appointment.ParseDate(raw)
	if err != nil {
		writeServiceError(w, r, err)
		return time.Time{}, false
	}
	return d, true
}

// Physicians

func registerPhysicianHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPhysicianRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.RegisterPhysician(r.Context(), appointment.PhysicianInput{
			Name:                req.Name,
			Specialization:      req.Specialization,
			Email:               req.Email,
			WorkingStart:        req.WorkingStart,
			WorkingEnd:          req.WorkingEnd,
			SlotDurationMinutes: req.SlotDurationMinutes,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPhysicianResponse(p))
	}
}

func listPhysiciansHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		physicians, err := svc.ListPhysicians(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := make([]PhysicianResponse, 0, len(physicians))
		for i := range physicians {
			p := toPhysicianResponse(&physicians[i])
			p.Email = ""
			resp = append(resp, p)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func currentPhysicianHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPhysician(r.Context(), PhysicianIDFromContext(r.Context()))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPhysicianResponse(p))
	}
}

func updateScheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateScheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.UpdateSchedule(r.Context(), PhysicianIDFromContext(r.Context()),
			req.WorkingStart, req.WorkingEnd, req.SlotDurationMinutes)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPhysicianResponse(p))
	}
}

// Slots

func generateSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		physicianID, ok := physicianIDParam(w, r)
		if !ok {
			return
		}
		var req GenerateSlotsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		date, err := appointment.ParseDate(req.Date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		generated, err := svc.GenerateSlots(r.Context(), physicianID, date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		status := http.StatusOK
		if generated {
			status = http.StatusCreated
		}
		writeJSON(w, status, GenerateSlotsResponse{
			Date:      appointment.FormatDate(date),
			Generated: generated,
		})
	}
}

func listFreeSlotsHandler(svc *appointment.Service, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		physicianID, ok := physicianIDParam(w, r)
		if !ok {
			return
		}
		date, ok := dateParam(w, r, now)
		if !ok {
			return
		}

		slots, err := svc.ListFreeSlots(r.Context(), physicianID, date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := FreeSlotsResponse{
			PhysicianID: physicianID,
			Date:        appointment.FormatDate(date),
			Slots:       make([]SlotResponse, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Bookings

func bookSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		physicianID, ok := physicianIDParam(w, r)
		if !ok {
			return
		}
		var req BookSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a valid UUID")
			return
		}

		booking, err := svc.BookSlot(r.Context(), physicianID, slotID, appointment.PatientInfo{
			Name:  req.Patient.Name,
			Age:   req.Patient.Age,
			Email: req.Patient.Email,
			Phone: req.Patient.Phone,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{
			TrackingID:  booking.TrackingID,
			QueueNumber: booking.QueueNumber,
			Date:        appointment.FormatDate(booking.Date),
			TimeDisplay: booking.Time.Display(),
		})
	}
}

func trackAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.TrackAppointment(r.Context(), chi.URLParam(r, "trackingID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTrackingResponse(qs))
	}
}

// Physician dashboard

func listAppointmentsHandler(svc *appointment.Service, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r, now)
		if !ok {
			return
		}

		board, err := svc.ListAppointments(r.Context(), PhysicianIDFromContext(r.Context()), date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBoardResponse(board))
	}
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.CompleteAppointment(r.Context(), PhysicianIDFromContext(r.Context()), chi.URLParam(r, "trackingID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusChangeResponse{OK: true, Appointment: toAppointmentResponse(*appt)})
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.CancelAppointment(r.Context(), PhysicianIDFromContext(r.Context()), chi.URLParam(r, "trackingID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusChangeResponse{OK: true, Appointment: toAppointmentResponse(*appt)})
	}
}

// Errors

// errorCode gives each sentinel a stable machine-readable code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, appointment.ErrPhysicianNotFound):
		return "physician_not_found"
	case errors.Is(err, appointment.ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		return "appointment_not_found"
	case errors.Is(err, appointment.ErrSlotAlreadyClaimed):
		return "slot_already_booked"
	case errors.Is(err, appointment.ErrSlotBeingClaimed):
		return "slot_being_booked"
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		return "invalid_status_transition"
	case errors.Is(err, appointment.ErrPhysicianEmailTaken):
		return "physician_email_taken"
	case errors.Is(err, appointment.ErrInvalidPatient):
		return "invalid_patient"
	case errors.Is(err, appointment.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, appointment.ErrInvalidSchedule):
		return "invalid_schedule"
	case errors.Is(err, appointment.ErrInvalidPhysician):
		return "invalid_physician"
	}
	switch appointment.KindOf(err) {
	case appointment.KindValidation:
		return "invalid_request"
	default:
		return "internal_error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch appointment.KindOf(err) {
	case appointment.KindNotFound:
		writeError(w, http.StatusNotFound, errorCode(err), err.Error())
	case appointment.KindConflict:
		writeError(w, http.StatusConflict, errorCode(err), err.Error())
	case appointment.KindValidation:
		writeError(w, http.StatusBadRequest, errorCode(err), err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong, please retry")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
