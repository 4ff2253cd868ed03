package schedule

import "time"

// MaxDuration is the longest bookable appointment, in minutes.
const MaxDuration = 300

// ValidationError is a business rule violation on a single appointment
// field. Validation stops at the first failing check, so callers always see
// exactly one message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrEmptyID          = &ValidationError{"Appointment ID cannot be empty."}
	ErrPastDate         = &ValidationError{"Appointment date cannot be in the past."}
	ErrEmptyTime        = &ValidationError{"Appointment time cannot be empty."}
	ErrEmptyLocation    = &ValidationError{"Location cannot be empty."}
	ErrEmptyClientName  = &ValidationError{"Client name cannot be empty."}
	ErrEmptyConsultant  = &ValidationError{"Consultant name cannot be empty."}
	ErrEmptyDescription = &ValidationError{"Description cannot be empty."}
	ErrDurationTooShort = &ValidationError{"Duration must be greater than zero."}
	ErrDurationTooLong  = &ValidationError{"Duration cannot be longer than 5 hours"}
	ErrEmptyType        = &ValidationError{"Consultation type cannot be empty."}
	ErrEmptyStatus      = &ValidationError{"Status cannot be empty."}
)

// Validator runs the field checks on a single appointment. The clock is a
// field so tests can pin "today".
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// Validate runs the checks in a fixed order and returns the first failure,
// or nil when the appointment is well formed.
func (v *Validator) Validate(a *Appointment) error {
	if a.ID == "" {
		return ErrEmptyID
	}
	if a.Date.IsZero() || a.Date.Before(today(v.now())) {
		return ErrPastDate
	}
	if !a.StartTime.Valid() {
		return ErrEmptyTime
	}
	if a.Location == "" {
		return ErrEmptyLocation
	}
	if a.ClientName == "" {
		return ErrEmptyClientName
	}
	if a.ConsultantName == "" {
		return ErrEmptyConsultant
	}
	if a.Description == "" {
		return ErrEmptyDescription
	}
	if a.Duration <= 0 {
		return ErrDurationTooShort
	}
	if a.Duration > MaxDuration {
		return ErrDurationTooLong
	}
	if !a.Type.Valid() {
		return ErrEmptyType
	}
	if !a.Status.Valid() {
		return ErrEmptyStatus
	}
	return nil
}

// today truncates the reference clock to the calendar date, so booking for
// the current day passes the past-date check.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
