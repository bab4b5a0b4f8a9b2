package types

import "time"

// Status is the lifecycle stage of an application.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusWaitlisted Status = "waitlisted"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusSubmitted,
		StatusAccepted, StatusRejected, StatusWaitlisted:
		return true
	}
	return false
}

// Priority levels for an application. Higher sorts first in listings.
const (
	PriorityLow    = 0
	PriorityMedium = 1
	PriorityHigh   = 2
)

// ValidPriority reports whether p is within the supported range.
func ValidPriority(p int) bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// Application represents one tracked (student, program) application.
type Application struct {
	// ID is the unique identifier of the application.
	ID int `json:"id" db:"id"`

	// StudentID identifies the owning student. It is a free-form
	// identifier (typically an email or client-generated id), not a
	// foreign key into the users table.
	StudentID string `json:"student_id" db:"student_id"`

	// ProgramID references an entry in the program catalog.
	ProgramID int `json:"program_id" db:"program_id"`

	// ProgramName is a denormalized copy of the catalog program name,
	// captured at creation time and never re-synchronized.
	ProgramName string `json:"program_name" db:"program_name"`

	// University is a denormalized copy of the catalog university name,
	// captured at creation time and never re-synchronized.
	University string `json:"university" db:"university"`

	// Status is the current lifecycle stage.
	Status Status `json:"status" db:"status"`

	// Priority ranks the application from 0 (low) to 2 (high).
	Priority int `json:"priority" db:"priority"`

	// ApplicationDeadline is the optional submission deadline.
	ApplicationDeadline *Date `json:"application_deadline" db:"application_deadline"`

	// Notes is optional free text attached by the student.
	Notes *string `json:"notes" db:"notes"`

	// CreatedAt is the timestamp at which the application was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
