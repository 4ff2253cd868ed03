package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role tags the acting user. The scheduling service gates mutating
// operations on it; it is never stored with an appointment.
type Role string

const (
	RoleConsultant Role = "consultant"
	RoleClient     Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleConsultant || r == RoleClient
}

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
