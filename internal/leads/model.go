// Package leads owns the prospect model and its sales-funnel state machine.
// All status changes must go through the StateMachine so that scores stay
// consistent with statuses.
package leads

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a stage in the sales funnel.
type Status string

const (
	StatusNew        Status = "new"
	StatusEngaged    Status = "engaged"
	StatusInterested Status = "interested"
	StatusScheduled  Status = "scheduled"
	StatusShowedUp   Status = "showed_up"
	StatusNoShow     Status = "no_show"
	StatusConverted  Status = "converted"
	StatusFollowUp   Status = "follow_up"
	StatusReEngaged  Status = "re_engaged"
	StatusLost       Status = "lost"
)

// Lead represents a prospect talking to the assistant.
type Lead struct {
	ID               uuid.UUID  `json:"id"`
	Phone            string     `json:"phone"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Score            int        `json:"score"`
	Status           Status     `json:"status"`
	LastContactAt    time.Time  `json:"last_contact_at"`
	ScheduledClassAt *time.Time `json:"scheduled_class_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NormalizePhone strips everything but digits and a leading plus sign.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ScoreOf recomputes the 0-100 lead score from status and profile
// completeness. It is a pure function: callers must re-run it on every
// status change, never cache-and-forget.
func ScoreOf(l *Lead) int {
	score := 0
	if l.Name != "" {
		score += 10
	}
	if l.Email != "" {
		score += 10
	}
	switch l.Status {
	case StatusInterested:
		score += 20
	case StatusScheduled:
		score += 30
	}
	if score > 100 {
		score = 100
	}
	return score
}
