package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bjjmingo/academy-platform/internal/booking"
	"github.com/bjjmingo/academy-platform/internal/schedule"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// EventStore persists reminder events.
type EventStore interface {
	Create(ctx context.Context, e *Event) (bool, error)
	ListDueWindow(ctx context.Context, from, to time.Time) ([]Event, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, detail string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler creates reminder events when a booking is confirmed.
type Scheduler struct {
	store   EventStore
	catalog *schedule.Catalog
	logger  *logging.Logger
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(store EventStore, catalog *schedule.Catalog, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{store: store, catalog: catalog, logger: logger}
}

// ScheduleForBooking creates one pending event per class occurrence inside
// the booking window and returns them all. Re-running for the same booking
// creates nothing new and returns the same events.
func (s *Scheduler) ScheduleForBooking(ctx context.Context, b *booking.Booking) ([]Event, error) {
	ct, err := s.catalog.ClassType(b.ClassTypeID)
	if err != nil {
		return nil, fmt.Errorf("reminders: schedule: %w", err)
	}

	var events []Event
	created := 0
	for day := b.StartsAt; !day.After(b.EndsAt); day = day.AddDate(0, 0, 1) {
		if !ct.OccursOn(day.Weekday()) {
			continue
		}
		occ := ct.StartTimeOn(day)
		if occ.Before(b.StartsAt) || occ.After(b.EndsAt) {
			continue
		}
		e := &Event{
			LeadID:      b.LeadID,
			BookingID:   b.ID,
			ClassTypeID: b.ClassTypeID,
			ClassAt:     occ,
		}
		ok, err := s.store.Create(ctx, e)
		if err != nil {
			return events, err
		}
		if ok {
			created++
		}
		events = append(events, *e)
	}

	s.logger.Info("reminders scheduled",
		"booking_id", b.ID,
		"lead_id", b.LeadID,
		"events", len(events),
		"created", created,
	)
	return events, nil
}
