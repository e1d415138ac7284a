package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD operations for reminder_events.
type Store struct {
	db DB
}

// NewStore creates a new reminder store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const eventColumns = `id, lead_id, booking_id, class_type_id, class_at, status, error_detail, sent_at, created_at, updated_at`

// Create inserts a reminder event. The unique constraint on
// (lead_id, class_at) makes scheduling idempotent: re-creating an existing
// event is a no-op that loads the existing id into e.ID and reports false.
func (s *Store) Create(ctx context.Context, e *Event) (bool, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = StatusPending
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO reminder_events (id, lead_id, booking_id, class_type_id, class_at, status, error_detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (lead_id, class_at) DO NOTHING
		RETURNING id`,
		e.ID, e.LeadID, e.BookingID, e.ClassTypeID, e.ClassAt, string(e.Status), e.ErrorDetail, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err == nil {
		return true, nil
	}
	if err != pgx.ErrNoRows {
		return false, fmt.Errorf("reminders: create event: %w", err)
	}

	// Conflict: surface the event already holding this (lead, class) pair.
	err = s.db.QueryRow(ctx, `
		SELECT id FROM reminder_events WHERE lead_id = $1 AND class_at = $2`,
		e.LeadID, e.ClassAt,
	).Scan(&e.ID)
	if err != nil {
		return false, fmt.Errorf("reminders: load existing event: %w", err)
	}
	return false, nil
}

// ListDueWindow returns pending events whose class time falls inside
// [from, to].
func (s *Store) ListDueWindow(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM reminder_events
		WHERE status = 'pending' AND class_at >= $1 AND class_at <= $2
		ORDER BY class_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reminders: list due: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// MarkSent transitions an event from pending to sent.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE reminder_events SET status = 'sent', sent_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'pending'`, now, id)
	if err != nil {
		return fmt.Errorf("reminders: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminders: mark sent: no pending event with id %s", id)
	}
	return nil
}

// MarkFailed transitions an event from pending to failed, keeping the error
// detail for later inspection.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, detail string) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE reminder_events SET status = 'failed', error_detail = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'`, detail, now, id)
	if err != nil {
		return fmt.Errorf("reminders: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminders: mark failed: no pending event with id %s", id)
	}
	return nil
}

// DeleteOlderThan removes delivered and failed events whose class time is
// before the cutoff. Pending events are kept for inspection.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM reminder_events
		WHERE class_at < $1 AND status IN ('sent', 'failed')`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reminders: delete older than: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountPending returns the number of events still waiting to be sent.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM reminder_events WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reminders: count pending: %w", err)
	}
	return count, nil
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var result []Event
	for rows.Next() {
		var e Event
		var status string
		err := rows.Scan(
			&e.ID, &e.LeadID, &e.BookingID, &e.ClassTypeID, &e.ClassAt,
			&status, &e.ErrorDetail, &e.SentAt, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("reminders: scan event: %w", err)
		}
		e.Status = Status(status)
		result = append(result, e)
	}
	return result, rows.Err()
}
