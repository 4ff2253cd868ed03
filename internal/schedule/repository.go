package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrTimeSlotTaken is returned when a write trips the unique
	// (consultant, date, start time) constraint. The service treats it as
	// an availability failure, which closes the window between the overlap
	// check and the insert.
	ErrTimeSlotTaken = errors.New("time slot already booked")
)

// Repository contains all DB interactions needed by the service. The service
// holds no cache; every read and write goes through here.
type Repository interface {
	Save(ctx context.Context, a *Appointment) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateTime(ctx context.Context, id string, date time.Time, start TimeOfDay) error
	UpdateDuration(ctx context.Context, id string, minutes int) error

	// Delete reports whether the target existed.
	Delete(ctx context.Context, id string) (bool, error)

	GetByID(ctx context.Context, id string) (*Appointment, error)
	GetAll(ctx context.Context) ([]Appointment, error)
	GetByConsultantAndDate(ctx context.Context, consultant string, date time.Time) ([]Appointment, error)
}
