package api

import (
	"fmt"
	"time"

	"github.com/consultly/consultant-scheduling/internal/schedule"
)

const dateLayout = "2006-01-02"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type AppointmentRequest struct {
	ID               string `json:"id,omitempty"`
	Date             string `json:"date"`       // YYYY-MM-DD
	StartTime        string `json:"start_time"` // HH:MM
	DurationMin      int    `json:"duration_min"`
	Location         string `json:"location"`
	ClientName       string `json:"client_name"`
	ConsultantName   string `json:"consultant_name"`
	Description      string `json:"description"`
	ConsultationType string `json:"consultation_type"`
	Status           string `json:"status"`
}

// toDomain converts the payload. Malformed date/time strings are transport
// errors; missing fields pass through as zero values for the validator to
// report in its own order and wording.
func (req AppointmentRequest) toDomain() (*schedule.Appointment, error) {
	a := &schedule.Appointment{
		ID:             req.ID,
		StartTime:      schedule.TimeOfDayUnset,
		Duration:       req.DurationMin,
		Location:       req.Location,
		ClientName:     req.ClientName,
		ConsultantName: req.ConsultantName,
		Description:    req.Description,
		Type:           schedule.ConsultationType(req.ConsultationType),
		Status:         schedule.Status(req.Status),
	}

	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return nil, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		a.Date = d
	}

	if req.StartTime != "" {
		t, err := schedule.ParseTimeOfDay(req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("start_time must be HH:MM: %w", err)
		}
		a.StartTime = t
	}

	return a, nil
}

type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type DurationRequest struct {
	DurationMin int `json:"duration_min"`
}

type AppointmentResponse struct {
	ID               string `json:"id"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	DurationMin      int    `json:"duration_min"`
	Location         string `json:"location"`
	ClientName       string `json:"client_name"`
	ConsultantName   string `json:"consultant_name"`
	Description      string `json:"description"`
	ConsultationType string `json:"consultation_type"`
	Status           string `json:"status"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		Date:             a.Date.Format(dateLayout),
		StartTime:        a.StartTime.String(),
		EndTime:          a.EndTime().String(),
		DurationMin:      a.Duration,
		Location:         a.Location,
		ClientName:       a.ClientName,
		ConsultantName:   a.ConsultantName,
		Description:      a.Description,
		ConsultationType: string(a.Type),
		Status:           string(a.Status),
	}
}

type TimeSlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type MessageResponse struct {
	Message     string               `json:"message"`
	Appointment *AppointmentResponse `json:"appointment,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
