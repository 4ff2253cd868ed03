package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/consultly/consultant-scheduling/internal/identity"
	redisclient "github.com/consultly/consultant-scheduling/internal/redis"
)

var (
	ErrAccessDenied = errors.New("access denied: must be a consultant to manage appointments")

	ErrSlotUnavailable = errors.New("the requested time slot is not available")

	ErrRescheduleConflict = errors.New("the requested time slot is not available for rescheduling")

	// ErrScheduleBusy means another add/reschedule holds the consultant's
	// day lock. Callers should retry.
	ErrScheduleBusy = errors.New("schedule is currently being modified, please retry")
)

// Service orchestrates appointment mutations: role gate, validation,
// availability check, persistence. It is stateless between calls; every read
// and write consults the repository.
type Service struct {
	repo      Repository
	validator *Validator
	locker    redisclient.Locker
	log       zerolog.Logger
}

func NewService(repo Repository, validator *Validator, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		locker:    locker,
		log:       log,
	}
}

// AddAppointment books a new appointment. The availability check and the
// insert run inside a per-consultant-day lock; a unique-constraint trip at
// insert time is reported the same way as a failed availability check, so
// concurrent adds for one slot cannot both win.
func (s *Service) AddAppointment(ctx context.Context, a *Appointment, role identity.Role) (*Appointment, error) {
	if role != identity.RoleConsultant {
		return nil, ErrAccessDenied
	}

	if err := s.validator.Validate(a); err != nil {
		return nil, err
	}

	var saved *Appointment

	err := s.locker.WithScheduleLock(ctx, a.ConsultantName, a.Date, func(lockCtx context.Context) error {
		existing, err := s.repo.GetByConsultantAndDate(lockCtx, a.ConsultantName, a.Date)
		if err != nil {
			return fmt.Errorf("load consultant schedule: %w", err)
		}
		if !IsAvailable(existing, a.StartTime, a.Duration, "") {
			return ErrSlotUnavailable
		}

		created, err := s.repo.Save(lockCtx, a)
		if err != nil {
			if errors.Is(err, ErrTimeSlotTaken) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("save appointment: %w", err)
		}

		saved = created
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	return saved, nil
}

// UpdateAppointment replaces the full record as-is. It runs the same role
// and validation gates as AddAppointment but no availability re-check.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment, role identity.Role) error {
	if role != identity.RoleConsultant {
		return ErrAccessDenied
	}

	if err := s.validator.Validate(a); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		if errors.Is(err, ErrTimeSlotTaken) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

// UpdateAppointmentStatus sets the status tag directly. Transition policy
// beyond "status must be set" is the caller's concern.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id string, status Status, role identity.Role) error {
	if role != identity.RoleConsultant {
		return ErrAccessDenied
	}
	if !status.Valid() {
		return ErrEmptyStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

// UpdateAppointmentDuration changes only the length of the booking, holding
// it to the same bounds the validator enforces.
func (s *Service) UpdateAppointmentDuration(ctx context.Context, id string, minutes int, role identity.Role) error {
	if role != identity.RoleConsultant {
		return ErrAccessDenied
	}
	if minutes <= 0 {
		return ErrDurationTooShort
	}
	if minutes > MaxDuration {
		return ErrDurationTooLong
	}

	if err := s.repo.UpdateDuration(ctx, id, minutes); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("update appointment duration: %w", err)
	}
	return nil
}

// DeleteAppointment removes the booking and reports whether it existed.
func (s *Service) DeleteAppointment(ctx context.Context, id string, role identity.Role) (bool, error) {
	if role != identity.RoleConsultant {
		return false, ErrAccessDenied
	}

	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	return existed, nil
}

// GetAppointmentByID reads through to the repository. A persistence failure
// degrades to an absent result with a logged diagnostic; it never surfaces
// as a fault to the caller.
func (s *Service) GetAppointmentByID(ctx context.Context, id string) *Appointment {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrAppointmentNotFound) {
			s.log.Error().Err(err).Str("appointment_id", id).Msg("failed to retrieve appointment")
		}
		return nil
	}
	return a
}

// GetAllAppointments lists every booking. Persistence failures degrade to an
// empty result with a logged diagnostic.
func (s *Service) GetAllAppointments(ctx context.Context) []Appointment {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to retrieve appointments")
		return nil
	}
	return all
}

// GetAvailableTimeSlots computes the free windows in [workStart, workEnd)
// for one consultant's day. Persistence failures degrade to no slots.
func (s *Service) GetAvailableTimeSlots(ctx context.Context, consultant string, date time.Time, workStart, workEnd TimeOfDay) []TimeSlot {
	booked, err := s.repo.GetByConsultantAndDate(ctx, consultant, date)
	if err != nil {
		s.log.Error().Err(err).
			Str("consultant", consultant).
			Str("date", date.Format("2006-01-02")).
			Msg("failed to retrieve consultant schedule")
		return nil
	}
	return FreeSlots(booked, workStart, workEnd)
}

// RescheduleAppointment moves a booking to a new date and time, keeping its
// duration. The conflict check runs against the consultant's bookings on the
// new date, with the target excluded so it never collides with itself.
func (s *Service) RescheduleAppointment(ctx context.Context, id string, newDate time.Time, newTime TimeOfDay, role identity.Role) error {
	if role != identity.RoleConsultant {
		return ErrAccessDenied
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("load appointment: %w", err)
	}

	err = s.locker.WithScheduleLock(ctx, a.ConsultantName, newDate, func(lockCtx context.Context) error {
		existing, err := s.repo.GetByConsultantAndDate(lockCtx, a.ConsultantName, newDate)
		if err != nil {
			return fmt.Errorf("load consultant schedule: %w", err)
		}
		if !IsAvailable(existing, newTime, a.Duration, a.ID) {
			return ErrRescheduleConflict
		}

		if err := s.repo.UpdateTime(lockCtx, id, newDate, newTime); err != nil {
			if errors.Is(err, ErrTimeSlotTaken) {
				return ErrRescheduleConflict
			}
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("update appointment time: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrScheduleBusy
		}
		return err
	}

	return nil
}
