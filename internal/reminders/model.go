package reminders

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of a class reminder.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Event is one scheduled reminder for one class occurrence. At most one
// event exists per (lead, class time) pair.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"lead_id"`
	BookingID   uuid.UUID  `json:"booking_id"`
	ClassTypeID string     `json:"class_type_id"`
	ClassAt     time.Time  `json:"class_at"`
	Status      Status     `json:"status"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
