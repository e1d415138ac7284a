package booking

import (
	"context"
	"errors"
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
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store provides booking persistence.
type Store interface {
	CreateActive(ctx context.Context, b *Booking) error
	FindActiveByLead(ctx context.Context, leadID uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	CountForSlot(ctx context.Context, classTypeID string, startsAt time.Time) (int, error)
}

// PostgresStore stores bookings in the relational database.
type PostgresStore struct {
	db DB
}

// NewPostgresStore initializes a store backed by pgx.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("booking: pgx db required")
	}
	return &PostgresStore{db: db}
}

const bookingColumns = `id, lead_id, class_type_id, kind, starts_at, ends_at, status, notes, created_at, updated_at`

// CreateActive inserts a new active booking. A per-lead advisory lock plus a
// partial unique index on active rows guarantee at most one active booking
// per lead under concurrent requests.
func (s *PostgresStore) CreateActive(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.Status = StatusActive
	b.CreatedAt = now
	b.UpdatedAt = now

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("booking: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, b.LeadID.String()); err != nil {
		return fmt.Errorf("booking: advisory lock: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE lead_id = $1 AND status = 'active')`,
		b.LeadID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("booking: check active: %w", err)
	}
	if exists {
		return ErrDuplicateActiveBooking
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (id, lead_id, class_type_id, kind, starts_at, ends_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.LeadID, b.ClassTypeID, string(b.Kind), b.StartsAt, b.EndsAt, string(b.Status), b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateActiveBooking
		}
		return fmt.Errorf("booking: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("booking: commit: %w", err)
	}
	return nil
}

// FindActiveByLead returns the lead's active booking, if any.
func (s *PostgresStore) FindActiveByLead(ctx context.Context, leadID uuid.UUID) (*Booking, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE lead_id = $1 AND status = 'active'`,
		leadID,
	)
	return scanBooking(row)
}

// UpdateStatus moves a booking to a new lifecycle state.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("booking: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoActiveBooking
	}
	return nil
}

// CountForSlot returns how many active bookings hold a spot in the given
// class occurrence.
func (s *PostgresStore) CountForSlot(ctx context.Context, classTypeID string, startsAt time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_type_id = $1 AND starts_at = $2 AND status = 'active'`,
		classTypeID, startsAt,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("booking: count slot: %w", err)
	}
	return count, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var kind, status string
	err := row.Scan(&b.ID, &b.LeadID, &b.ClassTypeID, &kind, &b.StartsAt, &b.EndsAt, &status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveBooking
	}
	if err != nil {
		return nil, fmt.Errorf("booking: scan: %w", err)
	}
	b.Kind = Kind(kind)
	b.Status = Status(status)
	return &b, nil
}
