package schedule

import "time"

type ConsultationType string

const (
	TypeInPerson ConsultationType = "in-person"
	TypePhone    ConsultationType = "phone"
	TypeVideo    ConsultationType = "video"
)

func (t ConsultationType) Valid() bool {
	switch t {
	case TypeInPerson, TypePhone, TypeVideo:
		return true
	}
	return false
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Appointment is one consultant/client booking on a single calendar day.
// Date carries only the calendar date (midnight UTC); the clock time lives
// in StartTime.
type Appointment struct {
	ID             string
	Date           time.Time
	StartTime      TimeOfDay
	Duration       int // minutes
	Location       string
	ClientName     string
	ConsultantName string
	Description    string
	Type           ConsultationType
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EndTime derives the end of the booking. Appointments never cross midnight.
func (a Appointment) EndTime() TimeOfDay {
	return a.StartTime.Add(a.Duration)
}

// TimeSlot is a free, unbooked range within a working window. It is computed
// output only and never persisted.
type TimeSlot struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (s TimeSlot) String() string {
	return "Available from: " + s.Start.String() + " to " + s.End.String()
}
