package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultly/consultant-scheduling/internal/identity"
	"github.com/consultly/consultant-scheduling/internal/schedule"
)

func loginHandler(auth *identity.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		tok, u, err := auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: tok, Role: string(u.Role)})
	}
}

func addAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		a, err := req.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		saved, err := svc.AddAppointment(r.Context(), a, CallerRole(r.Context()))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := toAppointmentResponse(saved)
		writeJSON(w, http.StatusCreated, MessageResponse{
			Message:     "Appointment successfully scheduled.",
			Appointment: &resp,
		})
	}
}

func updateAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		req.ID = chi.URLParam(r, "id")

		a, err := req.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		if err := svc.UpdateAppointment(r.Context(), a, CallerRole(r.Context())); err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment successfully updated."})
	}
}

func deleteAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existed, err := svc.DeleteAppointment(r.Context(), id, CallerRole(r.Context()))
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		if !existed {
			writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with that id")
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment successfully deleted."})
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		a := svc.GetAppointmentByID(r.Context(), id)
		if a == nil {
			writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with that id")
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func listAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := svc.GetAllAppointments(r.Context())

		out := make([]AppointmentResponse, 0, len(all))
		for i := range all {
			out = append(out, toAppointmentResponse(&all[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func rescheduleAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseTimeOfDay(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}

		if err := svc.RescheduleAppointment(r.Context(), id, date, start, CallerRole(r.Context())); err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment successfully rescheduled."})
	}
}

func updateStatusHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req StatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		err := svc.UpdateAppointmentStatus(r.Context(), id, schedule.Status(req.Status), CallerRole(r.Context()))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment status successfully updated."})
	}
}

func updateDurationHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req DurationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		err := svc.UpdateAppointmentDuration(r.Context(), id, req.DurationMin, CallerRole(r.Context()))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment duration successfully updated."})
	}
}

func freeSlotsHandler(svc *schedule.Service, defaultStart, defaultEnd schedule.TimeOfDay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		consultant := chi.URLParam(r, "name")

		date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date query parameter must be YYYY-MM-DD")
			return
		}

		workStart := defaultStart
		if v := r.URL.Query().Get("work_start"); v != "" {
			workStart, err = schedule.ParseTimeOfDay(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_work_start", "work_start must be HH:MM")
				return
			}
		}
		workEnd := defaultEnd
		if v := r.URL.Query().Get("work_end"); v != "" {
			workEnd, err = schedule.ParseTimeOfDay(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_work_end", "work_end must be HH:MM")
				return
			}
		}

		slots := svc.GetAvailableTimeSlots(r.Context(), consultant, date, workStart, workEnd)

		out := make([]TimeSlotResponse, 0, len(slots))
		for _, s := range slots {
			out = append(out, TimeSlotResponse{Start: s.Start.String(), End: s.End.String()})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	var verr *schedule.ValidationError

	switch {
	case errors.Is(err, schedule.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Message)
	case errors.Is(err, schedule.ErrSlotUnavailable),
		errors.Is(err, schedule.ErrRescheduleConflict):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, schedule.ErrScheduleBusy):
		writeError(w, http.StatusConflict, "schedule_busy", err.Error())
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "persistence_failure", err.Error())
	}
}
