package booking

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes a free trial reservation from a regular class booking.
type Kind string

const (
	KindTrial Kind = "trial"
	KindClass Kind = "class"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Booking is a reserved spot in a class. For trials, StartsAt is the first
// class of the trial week and EndsAt closes the trial window. For single
// class bookings, EndsAt equals StartsAt.
type Booking struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	ClassTypeID string
	Kind        Kind
	StartsAt    time.Time
	EndsAt      time.Time
	Status      Status
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
